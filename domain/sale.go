package domain

// Sale is one fulfilled prescription line. All lines of a prescription share
// PrescriptionID.
type Sale struct {
	ID             int64  `db:"id" json:"id"`
	PrescriptionID string `db:"prescription_id" json:"prescription_id"`
	DrugName       string `db:"drug_name" json:"drug_name"`
	Quantity       int64  `db:"quantity" json:"quantity"`
	CreatedAt      string `db:"created_at" json:"created_at"`
}
