package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jengzang/mobility-backend-go/internal/config"
)

func TestOpenPingSourceSQLite(t *testing.T) {
	db := openTestDB(t)
	cfg := config.Default()

	src, closeFn, err := OpenPingSource(context.Background(), cfg, db)
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()

	if _, ok := src.(*PingRepository); !ok {
		t.Errorf("source = %T, want *PingRepository", src)
	}
}

func TestOpenPingSourceRejectsBadConfig(t *testing.T) {
	db := openTestDB(t)

	cfg := config.Default()
	cfg.Source.Driver = "oracle"
	if _, _, err := OpenPingSource(context.Background(), cfg, db); err == nil {
		t.Error("unknown driver accepted")
	}

	cfg = config.Default()
	cfg.Source.Table = "pings; DROP TABLE x"
	if _, _, err := OpenPingSource(context.Background(), cfg, db); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("err = %v, want ErrInvalidIdentifier", err)
	}
}
