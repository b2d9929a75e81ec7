package logger

import (
	"github.com/mickamy/query-eventlog/event"
	"github.com/mickamy/query-eventlog/session"
)

// mapAuditKind maps a generic MySQL-flavored audit kind to the
// flavor-specific kind for the session it actually occurred on. Only
// the four generic MySQLAuth* kinds are remapped; everything else
// (including MySQLInitDB) is returned unchanged.
//
// TypeStats maps identically to TypeAdmin and TypeSQLite maps to the
// SQLite3 kinds; any other session type (a non-admin, non-sqlite
// session) keeps the generic MySQL-flavored kind.
func mapAuditKind(generic event.Kind, st session.SessionType) event.Kind {
	switch generic {
	case event.MySQLAuthOK:
		switch st {
		case session.TypeAdmin, session.TypeStats:
			return event.AdminAuthOK
		case session.TypeSQLite:
			return event.SQLiteAuthOK
		}
	case event.MySQLAuthErr:
		switch st {
		case session.TypeAdmin, session.TypeStats:
			return event.AdminAuthErr
		case session.TypeSQLite:
			return event.SQLiteAuthErr
		}
	case event.MySQLAuthClose:
		switch st {
		case session.TypeAdmin, session.TypeStats:
			return event.AdminAuthClose
		case session.TypeSQLite:
			return event.SQLiteAuthClose
		}
	case event.MySQLAuthQuit:
		switch st {
		case session.TypeAdmin, session.TypeStats:
			return event.AdminAuthQuit
		case session.TypeSQLite:
			return event.SQLiteAuthQuit
		}
	}
	return generic
}
