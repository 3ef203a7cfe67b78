// Package database handles the on-device local store connection and schema inspection.
//
// It wraps GORM to open either a sqlite file (the default for laptops, phones and
// kiosks) or a mysql database (for kiosks that keep their replica on a LAN server).
// The docstore package builds its GormStore on top of the returned *gorm.DB.
//
// # Schema Inspection
//
// GetTableColumns lists the columns of a table for both dialects. The local store
// uses it after migration to verify that a pre-existing documents table has the
// columns the replication engine expects.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "sync_documents")
package database
