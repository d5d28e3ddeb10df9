package db

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/authbridge/internal/gateway/mappings"
	"github.com/dmitrijs2005/authbridge/internal/gateway/sessions"
	"github.com/dmitrijs2005/authbridge/internal/gateway/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Users() users.Repository
	Mappings() mappings.Repository
	Sessions() sessions.Repository
}
