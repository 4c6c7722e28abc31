package database

import (
	"fmt"

	"pollbox/internal/domain/poll"
	"pollbox/internal/domain/user"
)

// Table order matters for drop and truncate: children before parents.
var managedModels = []interface{}{
	&poll.UserVote{},
	&poll.Choice{},
	&poll.Question{},
	&poll.PollStatus{},
	&user.Session{},
	&user.Profile{},
	&user.User{},
}

func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func Ping() error {
	return HealthCheck()
}

func TableExists(table string) (bool, error) {
	if DB == nil {
		return false, fmt.Errorf("database not connected")
	}
	return DB.Migrator().HasTable(table), nil
}

func TableCount(table string) (int64, error) {
	var count int64
	err := DB.Table(table).Count(&count).Error
	return count, err
}

// DropAllTables drops every managed table. Destructive.
func DropAllTables() error {
	for _, model := range managedModels {
		if err := DB.Migrator().DropTable(model); err != nil {
			return err
		}
	}
	return nil
}

// TruncateAllTables empties every managed table but keeps the schema.
func TruncateAllTables() error {
	tables := []string{"user_votes", "choices", "questions", "poll_statuses", "sessions", "profiles", "users"}
	for _, table := range tables {
		if err := DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			return err
		}
	}
	return nil
}
