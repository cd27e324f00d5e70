package projection

import (
	"database/sql"

	"progression/internal/application"
	"progression/internal/defendant"
	"progression/internal/document"
	"progression/internal/form"
	"progression/internal/groupcase"
	"progression/internal/hearing"
	"progression/internal/notice"
	"progression/internal/prosecutioncase"
)

// Set bundles the repositories of every aggregate kind.
type Set struct {
	Cases        Repository[prosecutioncase.Case]
	Hearings     Repository[hearing.Hearing]
	Applications Repository[application.Application]
	Groups       Repository[groupcase.Group]
	MatchGroups  Repository[defendant.MatchGroup]
	Documents    Repository[document.Document]
	Notices      Repository[notice.HearingNotices]
	Forms        Repository[form.Form]
}

// NewMemorySet returns repositories sharing one in-memory store.
func NewMemorySet() *Set {
	store := NewMemoryStore()
	return &Set{
		Cases:        NewMemory[prosecutioncase.Case](store, prosecutioncase.Kind),
		Hearings:     NewMemory[hearing.Hearing](store, hearing.Kind),
		Applications: NewMemory[application.Application](store, application.Kind),
		Groups:       NewMemory[groupcase.Group](store, groupcase.Kind),
		MatchGroups:  NewMemory[defendant.MatchGroup](store, defendant.Kind),
		Documents:    NewMemory[document.Document](store, document.Kind),
		Notices:      NewMemory[notice.HearingNotices](store, notice.Kind),
		Forms:        NewMemory[form.Form](store, form.Kind),
	}
}

// NewPostgresSet returns repositories on the projections table.
func NewPostgresSet(db *sql.DB) *Set {
	return &Set{
		Cases:        NewPostgres[prosecutioncase.Case](db, prosecutioncase.Kind),
		Hearings:     NewPostgres[hearing.Hearing](db, hearing.Kind),
		Applications: NewPostgres[application.Application](db, application.Kind),
		Groups:       NewPostgres[groupcase.Group](db, groupcase.Kind),
		MatchGroups:  NewPostgres[defendant.MatchGroup](db, defendant.Kind),
		Documents:    NewPostgres[document.Document](db, document.Kind),
		Notices:      NewPostgres[notice.HearingNotices](db, notice.Kind),
		Forms:        NewPostgres[form.Form](db, form.Kind),
	}
}
