package sector

func attack(att, def Attribute, damage string) *AttackPattern {
	return &AttackPattern{Attacker: att, Defender: def, Damage: damage}
}

// DefaultCatalog returns the stock asset set used when a scenario does not
// ship its own.
func DefaultCatalog() MapCatalog {
	return NewMapCatalog(
		// Force
		AssetDefinition{ID: "security_personnel", Name: "Security Personnel", Category: Force, Rating: 1, Cost: 2, HP: 3,
			Attack: attack(Force, Force, "1d3+1"), Counterattack: "1d4"},
		AssetDefinition{ID: "militia", Name: "Militia Unit", Category: Force, Rating: 1, Cost: 4, HP: 4,
			Attack: attack(Force, Force, "1d6"), Counterattack: "1d4+1"},
		AssetDefinition{ID: "heavy_drop_assets", Name: "Heavy Drop Assets", Category: Force, Rating: 3, Cost: 8, HP: 6,
			Attack: attack(Force, Force, "2d4"), Counterattack: "1d6"},
		AssetDefinition{ID: "gunship", Name: "Gunship", Category: Force, Rating: 4, Cost: 10, HP: 10,
			Attack: attack(Force, Force, "2d6"), Counterattack: "1d6"},
		AssetDefinition{ID: "strike_fleet", Name: "Strike Fleet", Category: Force, Rating: 6, Cost: 12, HP: 8,
			Attack: attack(Force, Force, "2d6"), Counterattack: "1d8"},

		// Cunning
		AssetDefinition{ID: "informers", Name: "Informers", Category: Cunning, Rating: 1, Cost: 2, HP: 3, Stealth: true},
		AssetDefinition{ID: "saboteurs", Name: "Saboteurs", Category: Cunning, Rating: 2, Cost: 5, HP: 6, Stealth: true,
			Attack: attack(Cunning, Cunning, "2d4")},
		AssetDefinition{ID: "covert_shipping", Name: "Covert Shipping", Category: Cunning, Rating: 3, Cost: 8, HP: 4,
			Counterattack: "1d4"},
		AssetDefinition{ID: "cyberninjas", Name: "Cyberninjas", Category: Cunning, Rating: 4, Cost: 10, HP: 4, Stealth: true,
			Attack: attack(Cunning, Cunning, "2d6")},

		// Wealth
		AssetDefinition{ID: "franchise", Name: "Franchise", Category: Wealth, Rating: 1, Cost: 2, HP: 3,
			Attack: attack(Wealth, Wealth, "1d4"), Counterattack: "1d4-1"},
		AssetDefinition{ID: "bank", Name: "Bank", Category: Wealth, Rating: 2, Cost: 4, HP: 5},
		AssetDefinition{ID: "mercenaries", Name: "Mercenaries", Category: Wealth, Rating: 3, Cost: 8, HP: 6,
			Attack: attack(Wealth, Force, "2d4+2"), Counterattack: "1d6"},
		AssetDefinition{ID: "monopoly", Name: "Monopoly", Category: Wealth, Rating: 5, Cost: 10, HP: 12,
			Attack: attack(Wealth, Wealth, "1d6"), Counterattack: "1d6"},
	)
}
