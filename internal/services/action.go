package services

import (
	"fmt"
	"log"
	"sort"

	"github.com/refprog/backend/internal/db"
	"github.com/refprog/backend/internal/models"
)

// recordAction appends an audit row with its key-value parameter set. The
// trail is append-only; nothing in the system ever updates or removes these
// rows. A failed audit write is logged but does not roll back the mutation
// it describes.
func recordAction(model string, modelID uint, action string, params map[string]any) {
	row := models.Action{
		Model:   model,
		ModelID: modelID,
		Action:  action,
	}
	if err := db.Conn().Create(&row).Error; err != nil {
		log.Printf("action: record %s %s/%d: %v", action, model, modelID, err)
		return
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		p := models.ActionParameter{
			ActionID: row.ID,
			Key:      k,
			Value:    fmt.Sprintf("%v", params[k]),
		}
		if err := db.Conn().Create(&p).Error; err != nil {
			log.Printf("action: record parameter %s: %v", k, err)
		}
	}
}
