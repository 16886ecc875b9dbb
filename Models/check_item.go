package Models

import (
	"log"
	"os"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// CheckItemTemplate is one item of the fixed inspection checklist.
// Reference data: admin managed, ordered by ordinal, and referenced by
// historical results even after edits.
type CheckItemTemplate struct {
	Base
	Code        string `json:"code" gorm:"size:20;not null;uniqueIndex"`
	Description string `json:"description" gorm:"size:255;not null"`
	Ordinal     int    `json:"ordinal" gorm:"not null;uniqueIndex"`
	IsActive    bool   `json:"is_active" gorm:"not null;default:true"`
}

// seedTemplate mirrors the entries of seed/check_items.json5.
type seedTemplate struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Ordinal     int    `json:"ordinal"`
}

// defaultCheckItems is the built-in checklist, used when no seed file is
// present.
var defaultCheckItems = []seedTemplate{
	{Code: "BRK", Description: "Frenos", Ordinal: 1},
	{Code: "LGT", Description: "Luces e indicadores", Ordinal: 2},
	{Code: "TIR", Description: "Neumáticos", Ordinal: 3},
	{Code: "ENG", Description: "Motor y fugas", Ordinal: 4},
	{Code: "STE", Description: "Dirección", Ordinal: 5},
	{Code: "SUS", Description: "Suspensión", Ordinal: 6},
	{Code: "EMI", Description: "Emisiones", Ordinal: 7},
	{Code: "SAF", Description: "Elementos de seguridad", Ordinal: 8},
}

// SeedCheckItemTemplates loads the checklist on first start. The seed
// file wins over the built-ins so operators can adjust descriptions; the
// json5 format lets them keep comments in the file.
func SeedCheckItemTemplates() {
	var count int64
	if err := DB.Model(&CheckItemTemplate{}).Count(&count).Error; err != nil {
		log.Printf("Failed to count check item templates: %v", err)
		return
	}
	if count > 0 {
		return
	}

	items := defaultCheckItems
	if data, err := os.ReadFile("seed/check_items.json5"); err == nil {
		var fromFile []seedTemplate
		if err := json5.Unmarshal(data, &fromFile); err != nil {
			log.Printf("Ignoring seed/check_items.json5: %v", err)
		} else if len(fromFile) > 0 {
			items = fromFile
		}
	}

	for _, item := range items {
		template := CheckItemTemplate{
			Code:        item.Code,
			Description: item.Description,
			Ordinal:     item.Ordinal,
			IsActive:    true,
		}
		if err := DB.Create(&template).Error; err != nil {
			log.Printf("Failed to seed check item %s: %v", item.Code, err)
		}
	}
	log.Printf("Seeded %d check item templates", len(items))
}
