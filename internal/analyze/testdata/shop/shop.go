// Package shop is a fixture for the analyze tests.
package shop

import "time"

type OrderStatus string

type Audit struct {
	CreatedAt time.Time `json:"created_at" label:"Created"`
}

type Order struct {
	Audit

	ID        int64       `json:"id"`
	Reference string      `json:"name" label:"Order Reference" validate:"required"`
	Status    OrderStatus `json:"state"`
	Customer  *Customer   `json:"partner_id" label:"Customer"`
	Lines     []Line      `json:"order_line"`
	Total     float64     `json:"amount_total"`
	Signature []byte      `json:"signature,omitempty"`
	Internal  string      `json:"-"`
	Weird     string      `json:"weird-name"`
	Notes     map[string]string
	secret    string
}

type Customer struct {
	Name     string    `json:"name"`
	Email    *string   `json:"email"`
	Referrer *Customer `json:"referrer_id"`
	Address  Address   `json:"address"`
}

type Address struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

type Line struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

func (o Order) Secret() string { return o.secret }
