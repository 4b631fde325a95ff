package entity

import "time"

// Client representa un receptor de comprobantes de la empresa.
type Client struct {
	ID        string
	CompanyID string
	Name      string
	IDType    string // "01" física, "02" jurídica, "03" DIMEX, "04" NITE
	Cedula    string
	Email     string
	Phone     string
	Province  string
	Canton    string
	District  string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
