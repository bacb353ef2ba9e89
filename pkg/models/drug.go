package models

import "github.com/google/uuid"

// Drug is a catalog entry from the imported FDA product listing. Only the
// fields the reminder pipeline reads are mapped here.
type Drug struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ProductNDC  string    `db:"product_ndc" json:"product_ndc"`
	BrandName   *string   `db:"brand_name" json:"brand_name,omitempty"`
	GenericName string    `db:"generic_name" json:"generic_name"`
	DosageForm  *string   `db:"dosage_form" json:"dosage_form,omitempty"`
	Route       *string   `db:"route" json:"route,omitempty"`
}

// TableName returns the database table name
func (Drug) TableName() string {
	return "drugs"
}
