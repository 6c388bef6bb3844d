package domain

type Drug struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Quantity  int64  `db:"quantity" json:"quantity"`
	UpdatedAt string `db:"updated_at" json:"updated_at"`
}
