package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// StudentProfile is a student's persistent account record. JSON field names follow the
// backup format so exports can be restored by any earlier deployment.
type StudentProfile struct {
	ID       string    `json:"id" gorm:"primaryKey;size:64"`
	Name     string    `json:"name" gorm:"not null;size:100;index:idx_students_name_grade"`
	Grade    string    `json:"grade" gorm:"not null;size:20;index:idx_students_name_grade"`
	Password string    `json:"password" gorm:"size:255"`
	Avatar   *string   `json:"avatar,omitempty" gorm:"type:text"`
	JoinedAt time.Time `json:"joinedAt" gorm:"not null"`

	// Status
	IsBlocked bool `json:"isBlocked" gorm:"default:false;index"`
	Score     int  `json:"score" gorm:"default:0;check:score >= 0"`

	// Assigned at first-login setup
	TeacherName *string `json:"teacherName,omitempty" gorm:"size:100"`

	// Cosmetics
	Inventory            datatypes.JSONSlice[string] `json:"inventory" gorm:"type:jsonb"`
	InventoryBackgrounds datatypes.JSONSlice[string] `json:"inventoryBackgrounds" gorm:"type:jsonb"`
	EquippedFrame        *string                     `json:"equippedFrame,omitempty" gorm:"size:64"`
	EquippedBackground   *string                     `json:"equippedBackground,omitempty" gorm:"size:64"`
}

func (StudentProfile) TableName() string {
	return "students"
}

// NeedsSetup reports whether an admin pre-registered the student without a password.
func (s *StudentProfile) NeedsSetup() bool {
	return s.Password == ""
}

// MatchesIdentity applies the login/duplicate rule: case-insensitive name, exact grade.
func (s *StudentProfile) MatchesIdentity(name, grade string) bool {
	return strings.EqualFold(strings.TrimSpace(s.Name), strings.TrimSpace(name)) && s.Grade == grade
}

// Owns reports whether the item id is in the owned set for the category.
func (s *StudentProfile) Owns(category CosmeticCategory, itemID string) bool {
	for _, id := range s.owned(category) {
		if id == itemID {
			return true
		}
	}
	return false
}

// Grant adds the item id to the owned set for the category. Granting twice is a no-op.
func (s *StudentProfile) Grant(category CosmeticCategory, itemID string) {
	if s.Owns(category, itemID) {
		return
	}
	switch category {
	case CategoryFrame:
		s.Inventory = append(s.Inventory, itemID)
	case CategoryBackground:
		s.InventoryBackgrounds = append(s.InventoryBackgrounds, itemID)
	}
}

// Equipped returns the active item id for the category, or nil.
func (s *StudentProfile) Equipped(category CosmeticCategory) *string {
	switch category {
	case CategoryFrame:
		return s.EquippedFrame
	case CategoryBackground:
		return s.EquippedBackground
	}
	return nil
}

// SetEquipped replaces the active item for the category; nil leaves the category empty.
func (s *StudentProfile) SetEquipped(category CosmeticCategory, itemID *string) {
	switch category {
	case CategoryFrame:
		s.EquippedFrame = itemID
	case CategoryBackground:
		s.EquippedBackground = itemID
	}
}

func (s *StudentProfile) owned(category CosmeticCategory) []string {
	switch category {
	case CategoryFrame:
		return s.Inventory
	case CategoryBackground:
		return s.InventoryBackgrounds
	}
	return nil
}

// Clone returns a deep copy so session-held copies never alias repository state.
func (s *StudentProfile) Clone() *StudentProfile {
	if s == nil {
		return nil
	}
	c := *s
	c.Avatar = cloneString(s.Avatar)
	c.TeacherName = cloneString(s.TeacherName)
	c.EquippedFrame = cloneString(s.EquippedFrame)
	c.EquippedBackground = cloneString(s.EquippedBackground)
	if s.Inventory != nil {
		c.Inventory = append(datatypes.JSONSlice[string]{}, s.Inventory...)
	}
	if s.InventoryBackgrounds != nil {
		c.InventoryBackgrounds = append(datatypes.JSONSlice[string]{}, s.InventoryBackgrounds...)
	}
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}
