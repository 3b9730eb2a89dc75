// Package sync reconciles the partner base against the spreadsheet the
// marketing team maintains, one sheet per promotion.
package sync

import (
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/refprog/backend/internal/apiclient"
	"github.com/refprog/backend/internal/apperr"
	"github.com/refprog/backend/internal/services"
	"github.com/refprog/backend/internal/sheets"
)

// Sheet column titles, fixed by the spreadsheet template.
const (
	colPhone = "Телефон"
	colName  = "Имя"
)

// Runner is one reconciliation pass.
type Runner interface {
	Run() error
}

// Supervisor runs the partner sync on a fixed interval, never more than one
// run at a time. A tick that lands while a run is still in flight is skipped.
type Supervisor struct {
	runner   Runner
	interval time.Duration
	running  atomic.Bool
	stop     chan struct{}
	done     chan struct{}
}

func NewSupervisor(runner Runner, interval time.Duration) *Supervisor {
	return &Supervisor{
		runner:   runner,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Supervisor) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.tick()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *Supervisor) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Supervisor) tick() {
	if !s.running.CompareAndSwap(false, true) {
		log.Println("sync: previous run still in progress, skipping tick")
		return
	}
	defer s.running.Store(false)
	if err := s.runner.Run(); err != nil {
		log.Printf("sync: run failed: %v", err)
	}
}

// PartnerSyncer performs one reconciliation pass over all promotions.
type PartnerSyncer struct {
	api *apiclient.Client
}

func NewPartnerSyncer(api *apiclient.Client) *PartnerSyncer {
	return &PartnerSyncer{api: api}
}

// Run fetches every live promotion, reads the sheet named after it, and
// converges the partner list toward the sheet. A promotion whose sheet fails
// is logged and skipped; the pass continues.
func (s *PartnerSyncer) Run() error {
	promotions, err := s.api.PromotionsList()
	if err != nil {
		return err
	}
	for _, promotion := range promotions {
		if err := s.syncPromotion(promotion); err != nil {
			log.Printf("sync: promotion %q: %v", promotion.Name, err)
		}
	}
	return nil
}

func (s *PartnerSyncer) syncPromotion(promotion apiclient.Promotion) error {
	rows, err := sheets.Rows(promotion.Name)
	if errors.Is(err, sheets.ErrSheetNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	internal := make(map[string]struct{}, len(promotion.Partners))
	for _, p := range promotion.Partners {
		internal[p.Phone] = struct{}{}
	}

	external := make(map[string]string, len(rows)) // phone -> name
	for _, row := range rows {
		phone, err := services.NormalizePhone(row[colPhone])
		if err != nil {
			log.Printf("sync: promotion %q: skipping row with phone %q: %v",
				promotion.Name, row[colPhone], err)
			continue
		}
		external[phone] = row[colName]
	}

	expired, fresh := diffPhones(internal, external)

	for _, phone := range expired {
		if err := s.api.PartnerDeleteByPhone(phone, promotion.ID); err != nil {
			log.Printf("sync: promotion %q: expire %s: %v", promotion.Name, phone, err)
		}
	}
	for _, phone := range fresh {
		if err := s.enroll(promotion.ID, external[phone], phone); err != nil {
			log.Printf("sync: promotion %q: enroll %s: %v", promotion.Name, phone, err)
		}
	}
	return nil
}

// enroll registers one sheet row as a partner: create the client (adopting an
// existing one on phone conflict), then create the partner.
func (s *PartnerSyncer) enroll(promotionID uint, name, phone string) error {
	clientID, err := s.api.ClientCreate(name, phone)
	if err != nil {
		existingID, ok := apiclient.ConflictID(err)
		if !ok {
			return err
		}
		clientID = existingID
	}
	_, err = s.api.PartnerCreate(promotionID, clientID)
	if err != nil && apperr.IsKind(err, apperr.KindAlreadyExists) {
		return nil
	}
	return err
}

// diffPhones splits the two phone sets into the partners to expire (known
// internally, gone from the sheet) and the ones to enroll (on the sheet,
// unknown internally).
func diffPhones(internal map[string]struct{}, external map[string]string) (expired, fresh []string) {
	for phone := range internal {
		if _, ok := external[phone]; !ok {
			expired = append(expired, phone)
		}
	}
	for phone := range external {
		if _, ok := internal[phone]; !ok {
			fresh = append(fresh, phone)
		}
	}
	return expired, fresh
}
