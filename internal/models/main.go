package models

// ModelRegistry lists the models created by --auto-migrate.
var ModelRegistry = []any{
	&WaitlistEntry{},
}
