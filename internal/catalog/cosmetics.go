package catalog

import "github.com/SAP-F-2025/tutor-service/internal/models"

var frames = []models.CosmeticItem{
	{ID: "frame-bronze", Name: "Bronze Ring", Price: 20, Style: "border-4 border-amber-700", Category: models.CategoryFrame},
	{ID: "frame-silver", Name: "Silver Ring", Price: 50, Style: "border-4 border-slate-300", Category: models.CategoryFrame},
	{ID: "frame-gold", Name: "Gold Ring", Price: 100, Style: "border-4 border-yellow-400 shadow-lg", Category: models.CategoryFrame},
	{ID: "frame-rainbow", Name: "Rainbow", Price: 200, Style: "ring-4 ring-offset-2 bg-gradient-to-r from-red-500 via-yellow-400 to-blue-500", Category: models.CategoryFrame},
	{ID: "frame-neon", Name: "Neon Glow", Price: 300, Style: "ring-4 ring-fuchsia-500 animate-pulse", Category: models.CategoryFrame},
}

var backgrounds = []models.CosmeticItem{
	{ID: "bg-sky", Name: "Clear Sky", Price: 30, Style: "bg-gradient-to-b from-sky-300 to-sky-100", Category: models.CategoryBackground},
	{ID: "bg-forest", Name: "Forest", Price: 60, Style: "bg-gradient-to-br from-green-700 to-emerald-300", Category: models.CategoryBackground},
	{ID: "bg-sunset", Name: "Sunset", Price: 120, Style: "bg-gradient-to-t from-orange-500 via-pink-500 to-purple-600", Category: models.CategoryBackground},
	{ID: "bg-space", Name: "Deep Space", Price: 250, Style: "bg-gradient-to-b from-slate-900 via-indigo-900 to-black", Category: models.CategoryBackground},
}

// Frames returns the frame catalog
func Frames() []models.CosmeticItem {
	return append([]models.CosmeticItem(nil), frames...)
}

// Backgrounds returns the background catalog
func Backgrounds() []models.CosmeticItem {
	return append([]models.CosmeticItem(nil), backgrounds...)
}

// FindItem looks an item up in both categories
func FindItem(id string) (models.CosmeticItem, bool) {
	for _, list := range [][]models.CosmeticItem{frames, backgrounds} {
		for _, item := range list {
			if item.ID == id {
				return item, true
			}
		}
	}
	return models.CosmeticItem{}, false
}
