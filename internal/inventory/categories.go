package inventory

// Default returns the registry covering the IPPU and Waste sectors. Energy
// and AFOLU appear in navigation but have no data-entry forms yet.
func Default() *Registry {
	return NewRegistry(append(ippuSubcategories(), wasteSubcategories()...))
}

func ippuSubcategories() []Subcategory {
	return []Subcategory{
		{
			Name:                "2A3_Glass_Production",
			DisplayName:         "2A3 - Glass Production",
			Sector:              SectorIPPU,
			PendingCollection:   "ippu_2a3_validation",
			ValidatedCollection: "ippu_2a3_validated",
			FormFile:            "ippu_2a3.yaml",
			KeyFields: []string{
				"mass_glass_produced_tonnes", "recycled_glass_fraction",
				"virgin_material_mass_tonnes", "carbonates_consumed_mass_tonnes",
				"co2_capture_volume_tonnes", "emissions_factor_tco2",
			},
			Activities: []Activity{
				{Label: "Glass Production", Column: "mass_glass_produced_tonnes", Units: "tonnes", Notes: "Total mass of glass produced (IPCC 2006, Tier 1, Volume 3, Chapter 2.3)", Aggregation: AggSum},
				{Label: "Recycled Glass Fraction", Column: "recycled_glass_fraction", Units: "fraction", Notes: "Fraction of recycled glass used in production", Aggregation: AggMean},
				{Label: "CO2 Capture Volume", Column: "co2_capture_volume_tonnes", Units: "tonnes", Notes: "CO2 captured from glass production processes", Aggregation: AggSum},
				{Label: "Virgin Material Mass", Column: "virgin_material_mass_tonnes", Units: "tonnes", Notes: "Mass of virgin material used in glass production", Aggregation: AggSum},
				{Label: "Carbonates Consumed", Column: "carbonates_consumed_mass_tonnes", Units: "tonnes", Notes: "Mass of carbonates consumed, key for CO2 emissions (IPCC 2006)", Aggregation: AggSum},
				{Label: "Emissions Factor", Column: "emissions_factor_tco2", Units: "tCO2/tonne", Notes: "Emissions factor for glass production", Aggregation: AggMean},
			},
		},
		{
			Name:                "2D_Non_Energy_Products",
			DisplayName:         "2D - Non-Energy Products from Fuels and Solvent Use",
			Sector:              SectorIPPU,
			PendingCollection:   "ippu_2d_validation",
			ValidatedCollection: "ippu_2d_validated",
			FormFile:            "ippu_2d.yaml",
			KeyFields: []string{
				"total_mass_motor_oils_tonnes", "total_mass_industrial_oils_tonnes",
				"total_mass_greases_tonnes", "mass_paraffin_wax_tonnes",
			},
			Activities: []Activity{
				{Label: "Motor Oils", Column: "total_mass_motor_oils_tonnes", Units: "tonnes", Notes: "Mass of motor oils used (IPCC 2006, Tier 1, Volume 3, Chapter 5.4)", Aggregation: AggSum},
				{Label: "Industrial Oils", Column: "total_mass_industrial_oils_tonnes", Units: "tonnes", Notes: "Mass of industrial oils used", Aggregation: AggSum},
				{Label: "Greases", Column: "total_mass_greases_tonnes", Units: "tonnes", Notes: "Mass of greases used", Aggregation: AggSum},
				{Label: "Paraffin Wax", Column: "mass_paraffin_wax_tonnes", Units: "tonnes", Notes: "Mass of paraffin wax used (IPCC 2006, Tier 1)", Aggregation: AggSum},
			},
		},
		{
			Name:                "2F_ODS_Substitutes",
			DisplayName:         "2F - Product Uses as Substitutes for Ozone-Depleting Substances",
			Sector:              SectorIPPU,
			PendingCollection:   "ippu_2f_validation",
			ValidatedCollection: "ippu_2f_validated",
			FormFile:            "ippu_2f.yaml",
			KeyFields: []string{
				"mass_hfcs_supplied_tonnes", "mass_gas_fire_protection_tonnes",
				"mass_hfcs_aerosols_tonnes", "mass_solvents_hfcs_pfcs_tonnes",
			},
			Activities: []Activity{
				{Label: "HFCs Supplied (Foam Blowing)", Column: "mass_hfcs_supplied_tonnes", Units: "tonnes", Notes: "HFCs supplied for foam blowing agents (IPCC 2006, Tier 1, Volume 3, Chapter 7.2)", Aggregation: AggSum},
				{Label: "Gas Fire Protection", Column: "mass_gas_fire_protection_tonnes", Units: "tonnes", Notes: "HFCs/PFCs used in fire protection equipment", Aggregation: AggSum},
				{Label: "HFCs Aerosols", Column: "mass_hfcs_aerosols_tonnes", Units: "tonnes", Notes: "HFCs used in aerosols", Aggregation: AggSum},
				{Label: "Solvents HFCs/PFCs", Column: "mass_solvents_hfcs_pfcs_tonnes", Units: "tonnes", Notes: "HFCs/PFCs used in solvents (IPCC 2006, Tier 1)", Aggregation: AggSum},
			},
		},
		{
			Name:                "2G1_Electrical_Equipment",
			DisplayName:         "2G1 - Electrical Equipment",
			Sector:              SectorIPPU,
			PendingCollection:   "ippu_2g1_validation",
			ValidatedCollection: "ippu_2g1_validated",
			FormFile:            "ippu_2g1.yaml",
			KeyFields: []string{
				"fluorinated_gases_manufacturing_kg", "fluorinated_gases_installation_kg",
				"fluorinated_gases_nameplate_capacity_kg",
			},
			Activities: []Activity{
				{Label: "Fluorinated Gases Manufacturing", Column: "fluorinated_gases_manufacturing_kg", Units: "kg", Notes: "SF6/PFC used in manufacturing electrical equipment (IPCC 2006, Tier 1, Volume 3, Chapter 7.3)", Aggregation: AggSum},
				{Label: "Fluorinated Gases Installation", Column: "fluorinated_gases_installation_kg", Units: "kg", Notes: "SF6/PFC used during equipment installation", Aggregation: AggSum},
				{Label: "Fluorinated Gases Nameplate Capacity", Column: "fluorinated_gases_nameplate_capacity_kg", Units: "kg", Notes: "Nameplate capacity of SF6/PFC in equipment", Aggregation: AggSum},
			},
		},
		{
			Name:                "2G2_SF6_PFC_Other_Uses",
			DisplayName:         "2G2 - SF6 and PFCs from Other Product Uses",
			Sector:              SectorIPPU,
			PendingCollection:   "ippu_2g2_validation",
			ValidatedCollection: "ippu_2g2_validated",
			FormFile:            "ippu_2g2.yaml",
			KeyFields: []string{
				"sf6_pfc_sales_other_uses", "awacs_aircraft_count",
				"research_particle_accelerators_count",
				"industrial_particle_accelerators_high_voltage_count",
				"industrial_particle_accelerators_low_voltage_count",
				"medical_radiotherapy_units_count", "soundproof_windows_sales_volume",
			},
			Activities: []Activity{
				{Label: "SF6/PFC Sales Other Uses", Column: "sf6_pfc_sales_other_uses", Units: "kg", Notes: "SF6/PFC sales for non-electrical uses (IPCC 2006, Tier 1, Volume 3, Chapter 7.3)", Aggregation: AggSum},
				{Label: "AWACS Aircraft Count", Column: "awacs_aircraft_count", Units: "count", Notes: "Number of AWACS aircraft using SF6/PFC", Aggregation: AggSum},
				{Label: "Research Particle Accelerators", Column: "research_particle_accelerators_count", Units: "count", Notes: "Number of research particle accelerators using SF6/PFC", Aggregation: AggSum},
				{Label: "Industrial Particle Accelerators (High Voltage)", Column: "industrial_particle_accelerators_high_voltage_count", Units: "count", Notes: "Number of high-voltage industrial accelerators", Aggregation: AggSum},
				{Label: "Industrial Particle Accelerators (Low Voltage)", Column: "industrial_particle_accelerators_low_voltage_count", Units: "count", Notes: "Number of low-voltage industrial accelerators", Aggregation: AggSum},
				{Label: "Medical Radiotherapy Units", Column: "medical_radiotherapy_units_count", Units: "count", Notes: "Number of radiotherapy units using SF6/PFC", Aggregation: AggSum},
				{Label: "Soundproof Windows Sales", Column: "soundproof_windows_sales_volume", Units: "volume", Notes: "Sales volume of soundproof windows using SF6", Aggregation: AggSum},
			},
		},
		{
			Name:                "2G3_N2O_Product_Uses",
			DisplayName:         "2G3 - N2O from Product Uses",
			Sector:              SectorIPPU,
			PendingCollection:   "ippu_2g3_validation",
			ValidatedCollection: "ippu_2g3_validated",
			FormFile:            "ippu_2g3.yaml",
			KeyFields:           []string{"mass_n2o_supplied_kg"},
			Activities: []Activity{
				{Label: "N2O Supplied", Column: "mass_n2o_supplied_kg", Units: "kg", Notes: "N2O supplied for product uses (IPCC 2006, Tier 1, Volume 3, Chapter 7.4)", Aggregation: AggSum},
			},
		},
		{
			Name:                "2H1_Pulp_And_Paper",
			DisplayName:         "2H1 - Pulp and Paper Industry",
			Sector:              SectorIPPU,
			PendingCollection:   "ippu_2h1_validation",
			ValidatedCollection: "ippu_2h1_validated",
			FormFile:            "ippu_2h1.yaml",
			KeyFields:           []string{"dry_pulp_produced_tonnes"},
			Activities: []Activity{
				{Label: "Dry Pulp Produced", Column: "dry_pulp_produced_tonnes", Units: "tonnes", Notes: "Dry pulp produced in pulp and paper industry (IPCC 2006, Tier 1, Volume 3, Chapter 7.5)", Aggregation: AggSum},
			},
		},
		{
			Name:                "2H2_Food_And_Beverages",
			DisplayName:         "2H2 - Food and Beverages Industry",
			Sector:              SectorIPPU,
			PendingCollection:   "ippu_2h2_validation",
			ValidatedCollection: "ippu_2h2_validated",
			FormFile:            "ippu_2h2.yaml",
			KeyFields:           []string{"food_beverage_produced_tonnes"},
			Activities: []Activity{
				{Label: "Food/Beverage Produced", Column: "food_beverage_produced_tonnes", Units: "tonnes", Notes: "Food and beverage production (IPCC 2006, Tier 1, Volume 3, Chapter 7.5)", Aggregation: AggSum},
			},
		},
	}
}

func wasteSubcategories() []Subcategory {
	return []Subcategory{
		{
			Name:                "4A1_A_Managed_Landfills",
			DisplayName:         "4A1a - Managed Landfills",
			Sector:              SectorWaste,
			PendingCollection:   "waste_4a1a_validation",
			ValidatedCollection: "waste_4a1a_validated",
			FormFile:            "waste_4a1a.yaml",
			KeyFields:           []string{"mass_waste_disposed_tonnes"},
			Activities: []Activity{
				{Label: "Waste Disposed (Managed Landfills)", Column: "mass_waste_disposed_tonnes", Units: "tonnes", Notes: "Mass of solid waste disposed at managed landfill sites (IPCC 2006, Volume 5, Chapter 3)", Aggregation: AggSum},
			},
		},
		{
			Name:                "4A1_B_Managed_Controlled_Dumpsites",
			DisplayName:         "4A1b - Managed Controlled Dumpsites",
			Sector:              SectorWaste,
			PendingCollection:   "waste_4a1b_validation",
			ValidatedCollection: "waste_4a1b_validated",
			FormFile:            "waste_4a1b.yaml",
			KeyFields:           []string{"mass_waste_disposed_tonnes"},
			Activities: []Activity{
				{Label: "Waste Disposed (Controlled Dumpsites)", Column: "mass_waste_disposed_tonnes", Units: "tonnes", Notes: "Mass of solid waste disposed at managed controlled dumpsites", Aggregation: AggSum},
			},
		},
		{
			Name:                "4A2_Unmanaged_Dumpsites",
			DisplayName:         "4A2 - Unmanaged Dumpsites",
			Sector:              SectorWaste,
			PendingCollection:   "waste_4a2_validation",
			ValidatedCollection: "waste_4a2_validated",
			FormFile:            "waste_4a2.yaml",
			KeyFields:           []string{"mass_waste_disposed_tonnes"},
			Activities: []Activity{
				{Label: "Waste Disposed (Unmanaged Dumpsites)", Column: "mass_waste_disposed_tonnes", Units: "tonnes", Notes: "Mass of solid waste disposed at unmanaged dumpsites", Aggregation: AggSum},
			},
		},
		{
			Name:                "4A3_Uncategorized_Dumpsites",
			DisplayName:         "4A3 - Uncategorized Dumpsites",
			Sector:              SectorWaste,
			PendingCollection:   "waste_4a3_validation",
			ValidatedCollection: "waste_4a3_validated",
			FormFile:            "waste_4a3.yaml",
			KeyFields:           []string{"mass_waste_disposed_tonnes"},
			Activities: []Activity{
				{Label: "Waste Disposed (Uncategorized Dumpsites)", Column: "mass_waste_disposed_tonnes", Units: "tonnes", Notes: "Mass of solid waste disposed at uncategorized sites", Aggregation: AggSum},
			},
		},
		{
			Name:                "4B_Biological_Treatment",
			DisplayName:         "4B - Biological Treatment of Solid Waste",
			Sector:              SectorWaste,
			PendingCollection:   "waste_4b_validation",
			ValidatedCollection: "waste_4b_validated",
			FormFile:            "waste_4b.yaml",
			KeyFields:           []string{"mass_waste_treated_tonnes"},
			Activities: []Activity{
				{Label: "Waste Biologically Treated", Column: "mass_waste_treated_tonnes", Units: "tonnes", Notes: "Mass of organic waste composted or anaerobically digested (IPCC 2006, Volume 5, Chapter 4)", Aggregation: AggSum},
			},
		},
		{
			Name:                "4C1_Waste_Incineration",
			DisplayName:         "4C1 - Waste Incineration",
			Sector:              SectorWaste,
			PendingCollection:   "waste_4c1_validation",
			ValidatedCollection: "waste_4c1_validated",
			FormFile:            "waste_4c1.yaml",
			KeyFields:           []string{"mass_waste_incinerated_tonnes"},
			Activities: []Activity{
				{Label: "Waste Incinerated", Column: "mass_waste_incinerated_tonnes", Units: "tonnes", Notes: "Mass of waste incinerated (IPCC 2006, Volume 5, Chapter 5)", Aggregation: AggSum},
			},
		},
		{
			Name:                "4C2_Open_Burning",
			DisplayName:         "4C2 - Open Burning of Waste",
			Sector:              SectorWaste,
			PendingCollection:   "waste_4c2_validation",
			ValidatedCollection: "waste_4c2_validated",
			FormFile:            "waste_4c2.yaml",
			KeyFields:           []string{"mass_waste_burned_tonnes"},
			Activities: []Activity{
				{Label: "Waste Openly Burned", Column: "mass_waste_burned_tonnes", Units: "tonnes", Notes: "Mass of waste burned in the open", Aggregation: AggSum},
			},
		},
		{
			Name:                "4D_Wastewater_Treatment",
			DisplayName:         "4D - Wastewater Treatment and Discharge",
			Sector:              SectorWaste,
			PendingCollection:   "waste_4d_validation",
			ValidatedCollection: "waste_4d_validated",
			FormFile:            "waste_4d.yaml",
			KeyFields:           []string{"wastewater_volume_treated_m3"},
			Activities: []Activity{
				{Label: "Wastewater Treated", Column: "wastewater_volume_treated_m3", Units: "m3", Notes: "Volume of wastewater treated and discharged (IPCC 2006, Volume 5, Chapter 6)", Aggregation: AggSum},
			},
		},
		{
			Name:                "4E_Other",
			DisplayName:         "4E - Other",
			Sector:              SectorWaste,
			PendingCollection:   "waste_4e_validation",
			ValidatedCollection: "waste_4e_validated",
			FormFile:            "waste_4e.yaml",
			KeyFields:           []string{"mass_waste_other_tonnes"},
			Activities: []Activity{
				{Label: "Other Waste Handled", Column: "mass_waste_other_tonnes", Units: "tonnes", Notes: "Mass of waste handled by treatments outside 4A-4D", Aggregation: AggSum},
			},
		},
	}
}
