package handlers

import (
	"net"
	"net/http"

	"github.com/refprog/backend/internal/services"
)

// ClickCreate records a referral-link visit from the public site. The caller's
// address is taken from the connection, not the payload.
func ClickCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	if err := services.ClickCreate(req.Code, clientIP(r)); err != nil {
		Fail(w, err)
		return
	}
	OK(w, nil)
}

func LeadCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code  string `json:"code"`
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	id, err := services.LeadCreate(req.Code, req.Name, req.Phone)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"id": id})
}

// PartnerCheck resolves the base64 code from a shared referral link.
func PartnerCheck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	code, err := services.PartnerCheckCode(req.Code)
	if err != nil {
		Fail(w, err)
		return
	}
	OK(w, map[string]any{"code": code})
}

// clientIP strips the port from RemoteAddr. The RealIP middleware has already
// substituted the forwarded address when one is present.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
