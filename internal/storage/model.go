package storage

import (
	"database/sql"
	"time"

	"github.com/cuongbtq/screenshot-service/internal/domain"
)

type jobRow struct {
	ID        string         `db:"id"`
	Status    string         `db:"status"`
	SourceURI string         `db:"source_uri"`
	ResultURI sql.NullString `db:"result_uri"`
	Error     sql.NullString `db:"error"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func toRow(job *domain.Job) jobRow {
	return jobRow{
		ID:        job.ID,
		Status:    string(job.Status),
		SourceURI: job.SourceURI,
		ResultURI: nullString(job.ResultURI),
		Error:     nullString(job.Error),
		CreatedAt: job.CreatedAt.UTC(),
		UpdatedAt: job.UpdatedAt.UTC(),
	}
}

func (r jobRow) toDomain() *domain.Job {
	return &domain.Job{
		ID:        r.ID,
		Status:    domain.Status(r.Status),
		SourceURI: r.SourceURI,
		ResultURI: r.ResultURI.String,
		Error:     r.Error.String,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
