package config

// defaultBrands seeds the brand dictionary when no config file lists one.
var defaultBrands = []string{
	"A-Derma",
	"Avène",
	"Bayer",
	"Bepanthen",
	"Bioderma",
	"CeraVe",
	"Chicco",
	"Curaprox",
	"Ducray",
	"Elmex",
	"Eucerin",
	"HiPP",
	"Klorane",
	"La Roche-Posay",
	"Mustela",
	"Nature's Way",
	"Nivea",
	"Now Foods",
	"Oral-B",
	"Parodontax",
	"Sensodyne",
	"Solgar",
	"Sopharma",
	"Uriage",
	"Vichy",
}

// defaultCategoryMap maps storefront categories to Google taxonomy paths.
var defaultCategoryMap = map[string]string{
	"Козметика":              "Health & Beauty > Personal Care > Cosmetics",
	"Лекарства":              "Health & Beauty > Health Care > Medicine & Drugs",
	"Хранителни добавки":     "Health & Beauty > Health Care > Fitness & Nutrition > Vitamins & Supplements",
	"Витамини":               "Health & Beauty > Health Care > Fitness & Nutrition > Vitamins & Supplements",
	"Майка и дете":           "Baby & Toddler",
	"Орална хигиена":         "Health & Beauty > Personal Care > Oral Care",
	"Медицински изделия":     "Health & Beauty > Health Care > Medical Equipment",
	"Слънцезащита":           "Health & Beauty > Personal Care > Cosmetics > Skin Care > Sunscreen",
	"Грижа за косата":        "Health & Beauty > Personal Care > Hair Care",
	"Интимна грижа":          "Health & Beauty > Personal Care > Feminine Sanitary Supplies",
}
