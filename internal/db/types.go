package db

type Export struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
	Depth     int    `db:"depth"`
	NodeCount int    `db:"node_count"`
}

type Node struct {
	ID       int64  `db:"id"`
	ExportID int64  `db:"export_id"`
	ParentID *int64 `db:"parent_id"`
	Ply      int    `db:"ply"`
	Ord      int    `db:"ord"`
	FromSq   uint8  `db:"from_sq"`
	ToSq     uint8  `db:"to_sq"`
}
