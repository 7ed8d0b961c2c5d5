package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/balkashynov/taskdash/internal/models"
	"github.com/balkashynov/taskdash/internal/session"
)

// CookieJar implements session.Jar.
// It persists cookies in the local database, standing in for a browser jar
type CookieJar struct {
	db *gorm.DB
}

// NewCookieJar wraps an open database
func NewCookieJar(db *gorm.DB) *CookieJar {
	return &CookieJar{db: db}
}

// Get returns the value of the cookie name scoped to path
func (j *CookieJar) Get(name, path string) (string, error) {
	var cookie models.Cookie
	err := j.db.Where("name = ? AND path = ?", name, path).First(&cookie).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", session.ErrNoCookie
	}
	if err != nil {
		return "", fmt.Errorf("read cookie %s: %w", name, err)
	}
	return cookie.Value, nil
}

// Set writes or overwrites the cookie name scoped to path
func (j *CookieJar) Set(name, path, value string) error {
	cookie := models.Cookie{Name: name, Path: path, Value: value}
	err := j.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&cookie).Error
	if err != nil {
		return fmt.Errorf("write cookie %s: %w", name, err)
	}
	return nil
}

// Remove deletes the cookie; removing an absent cookie is not an error
func (j *CookieJar) Remove(name, path string) error {
	err := j.db.Where("name = ? AND path = ?", name, path).Delete(&models.Cookie{}).Error
	if err != nil {
		return fmt.Errorf("remove cookie %s: %w", name, err)
	}
	return nil
}
