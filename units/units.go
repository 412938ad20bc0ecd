// Package units is a centralized place for physical conversion factors and
// other constants used when post-processing DayCent simulation results.
package units

// Area and mass conversions.
const (
	HaPerAcre   = 0.404686 // ha per acre
	KgPerBuCorn = 25.4012  // kg per bushel, corn grain
	KgPerBuSoy  = 27.2     // kg per bushel, soybeans
	GM2ToMgHa   = 0.01     // g m-2 to Mg ha-1
	GM2ToKgHa   = 10.0     // g m-2 to kg ha-1
	KgToMg      = 0.001
)

// Carbon and nitrogen bookkeeping.
const (
	CConcentration = 0.45            // C mass fraction of dry biomass
	NToN2O         = 44.013 / 28.014 // mass N2O per mass N2O-N
	CToCO2         = 44.009 / 12.011 // mass CO2 per mass C
	N2OGWP100      = 298.0           // 100-year global warming potential of N2O
	LeachNToN2ONEF = 0.0075          // kg N2O-N per kg N leached, indirect EF
)
