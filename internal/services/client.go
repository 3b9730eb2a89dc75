package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/refprog/backend/internal/apperr"
	"github.com/refprog/backend/internal/auth"
	"github.com/refprog/backend/internal/db"
	"github.com/refprog/backend/internal/models"
	"github.com/refprog/backend/internal/store"
)

var (
	clientGuard         = auth.Guard{Permissions: []string{"clients"}, AllowRoot: true}
	clientPartnersGuard = auth.Guard{Permissions: []string{"partners"}, AllowRoot: true}
)

type ClientInput struct {
	UserID    int
	Fullname  string // alternative to the three name fields
	Firstname string
	Lastname  string
	Surname   string
	Email     string
	Phone     string
	IsPartner bool
}

// names returns the three-part name, splitting Fullname when the separate
// fields are absent ("Lastname Firstname Surname" order).
func (in ClientInput) names() (first, last, sur string) {
	first, last, sur = in.Firstname, in.Lastname, in.Surname
	if first == "" && last == "" && sur == "" && in.Fullname != "" {
		parts := strings.Fields(in.Fullname)
		switch len(parts) {
		case 1:
			first = parts[0]
		case 2:
			last, first = parts[0], parts[1]
		default:
			last, first, sur = parts[0], parts[1], strings.Join(parts[2:], " ")
		}
	}
	return first, last, sur
}

// ClientCreate stores a new person. Phone is the uniqueness key and is
// normalized before the check; a conflict reports the existing row's id so
// callers (the sync job in particular) can adopt it.
func ClientCreate(token string, in ClientInput) (uint, error) {
	ident, err := clientGuard.Authorize(token)
	if err != nil {
		return 0, err
	}
	client, err := createClient(ident.Actor(), in)
	if err != nil {
		return 0, err
	}
	return client.ID, nil
}

func createClient(actor string, in ClientInput) (*models.Client, error) {
	phone, err := NormalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}

	unlock := createLocks.Lock("client:" + phone)
	defer unlock()

	var existing models.Client
	err = db.Conn().Where("phone = ?", phone).First(&existing).Error
	if err == nil {
		return nil, apperr.AlreadyExists("Client", "phone", phone, existing.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	first, last, sur := in.names()
	client := models.Client{
		UserID:    in.UserID,
		Firstname: first,
		Lastname:  last,
		Surname:   sur,
		Email:     in.Email,
		Phone:     phone,
		IsPartner: in.IsPartner,
	}
	if err := db.Conn().Create(&client).Error; err != nil {
		return nil, err
	}

	recordAction("client", client.ID, "create", map[string]any{
		"creator":    actor,
		"user":       in.UserID,
		"firstname":  first,
		"email":      in.Email,
		"phone":      phone,
		"is_partner": in.IsPartner,
	})
	return &client, nil
}

type ClientPatch struct {
	Firstname *string
	Lastname  *string
	Surname   *string
	Email     *string
	Phone     *string
	IsPartner *bool
}

func (p ClientPatch) empty() bool {
	return p.Firstname == nil && p.Lastname == nil && p.Surname == nil &&
		p.Email == nil && p.Phone == nil && p.IsPartner == nil
}

func ClientUpdate(token string, id uint, patch ClientPatch) error {
	ident, err := clientGuard.Authorize(token)
	if err != nil {
		return err
	}
	return updateClient(ident.Actor(), id, patch)
}

func updateClient(actor string, id uint, patch ClientPatch) error {
	if patch.empty() {
		return apperr.MissingRequiredParameter(
			"firstname", "lastname", "surname", "email", "phone", "is_partner")
	}

	var client models.Client
	if err := store.FirstActive(&client, "Client", "id", id, "id = ?", id); err != nil {
		return err
	}

	updates := map[string]any{}
	params := map[string]any{"updater": actor}
	set := func(column string, value any) {
		updates[column] = value
		params[column] = value
	}

	if patch.Firstname != nil {
		set("firstname", *patch.Firstname)
	}
	if patch.Lastname != nil {
		set("lastname", *patch.Lastname)
	}
	if patch.Surname != nil {
		set("surname", *patch.Surname)
	}
	if patch.Email != nil {
		set("email", *patch.Email)
	}
	if patch.Phone != nil {
		phone, err := NormalizePhone(*patch.Phone)
		if err != nil {
			return err
		}
		if phone != client.Phone {
			var existing models.Client
			err := db.Conn().Where("phone = ? AND id <> ?", phone, client.ID).First(&existing).Error
			if err == nil {
				return apperr.AlreadyExists("Client", "phone", phone, existing.ID)
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		set("phone", phone)
	}
	if patch.IsPartner != nil {
		set("is_partner", *patch.IsPartner)
	}

	if err := db.Conn().Model(&client).Updates(updates).Error; err != nil {
		return err
	}
	recordAction("client", client.ID, "update", params)
	return nil
}

func ClientDelete(token string, id uint) error {
	ident, err := clientGuard.Authorize(token)
	if err != nil {
		return err
	}
	var client models.Client
	if err := store.FirstActive(&client, "Client", "id", id, "id = ?", id); err != nil {
		return err
	}
	if err := store.SoftDelete(&client); err != nil {
		return err
	}
	recordAction("client", client.ID, "delete", map[string]any{
		"deleter": ident.Actor(),
	})
	return nil
}

func ClientGet(token string, id uint) (map[string]any, error) {
	if _, err := clientGuard.Authorize(token); err != nil {
		return nil, err
	}
	var client models.Client
	if err := store.FirstActive(&client, "Client", "id", id, "id = ?", id); err != nil {
		return nil, err
	}
	return clientDict(&client), nil
}

func ClientList(token string, page int) ([]map[string]any, error) {
	if _, err := clientGuard.Authorize(token); err != nil {
		return nil, err
	}
	return listClients(page, false)
}

// ClientListPartners lists only the clients flagged as partner candidates.
func ClientListPartners(token string) ([]map[string]any, error) {
	if _, err := clientPartnersGuard.Authorize(token); err != nil {
		return nil, err
	}
	return listClients(0, true)
}

func listClients(page int, partnersOnly bool) ([]map[string]any, error) {
	q := db.Conn().Where("is_deleted = ?", false).Order("id")
	if partnersOnly {
		q = q.Where("is_partner = ?", true)
	}
	if page > 0 {
		per := configItemsPerPage()
		q = q.Offset((page - 1) * per).Limit(per)
	}

	var clients []models.Client
	if err := q.Find(&clients).Error; err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(clients))
	for i := range clients {
		out = append(out, clientDict(&clients[i]))
	}
	return out, nil
}

func clientDict(client *models.Client) map[string]any {
	return map[string]any{
		"id":         client.ID,
		"user_id":    client.UserID,
		"fullname":   clientFullname(client),
		"email":      client.Email,
		"phone":      client.Phone,
		"is_partner": client.IsPartner,
	}
}
