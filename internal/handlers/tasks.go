package handlers

import (
	"net/http"

	"github.com/refprog/backend/internal/services"
)

// TaskClientsSync receives the billing system's bulk client export and returns
// the bonus operations to accrue.
func TaskClientsSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token   string                `json:"token"`
		Clients []services.TaskClient `json:"clients"`
	}
	if err := decode(r, &req); err != nil {
		Fail(w, err)
		return
	}
	bonuses, err := services.TaskClientsSync(req.Token, req.Clients)
	if err != nil {
		Fail(w, err)
		return
	}
	if bonuses == nil {
		bonuses = []services.BonusOperation{}
	}
	OK(w, map[string]any{"bonus_operations": bonuses})
}
