package stage

// WeekTarget is one week's environmental targets within a grow.
type WeekTarget struct {
	Week       int     `json:"week"`
	Stage      string  `json:"stage"`
	VPDMin     float64 `json:"vpd_min"`     // kPa
	VPDMax     float64 `json:"vpd_max"`     // kPa
	PPFDTarget float64 `json:"ppfd_target"` // µmol/m²/s
	DLITarget  float64 `json:"dli_target"`  // mol/m²/day
}

// Built-in week tables per plant type and phase kind. Week numbers are
// 1-based and contiguous; lookups past the last entry plateau on it.
var profileTables = map[string]map[string][]WeekTarget{
	"cannabis": {
		"photoperiod": {
			{Week: 1, Stage: "germination", VPDMin: 0.40, VPDMax: 0.80, PPFDTarget: 200, DLITarget: 13},
			{Week: 2, Stage: "early-veg", VPDMin: 0.65, VPDMax: 0.95, PPFDTarget: 350, DLITarget: 23},
			{Week: 3, Stage: "early-veg", VPDMin: 0.80, VPDMax: 1.00, PPFDTarget: 450, DLITarget: 29},
			{Week: 4, Stage: "mid-veg", VPDMin: 0.90, VPDMax: 1.10, PPFDTarget: 550, DLITarget: 36},
			{Week: 5, Stage: "late-veg", VPDMin: 0.95, VPDMax: 1.15, PPFDTarget: 650, DLITarget: 42},
			{Week: 6, Stage: "early-flower", VPDMin: 1.00, VPDMax: 1.25, PPFDTarget: 750, DLITarget: 32},
			{Week: 7, Stage: "early-flower", VPDMin: 1.05, VPDMax: 1.30, PPFDTarget: 850, DLITarget: 37},
			{Week: 8, Stage: "mid-flower", VPDMin: 1.15, VPDMax: 1.40, PPFDTarget: 900, DLITarget: 39},
			{Week: 9, Stage: "mid-flower", VPDMin: 1.20, VPDMax: 1.45, PPFDTarget: 900, DLITarget: 39},
			{Week: 10, Stage: "mid-flower", VPDMin: 1.20, VPDMax: 1.45, PPFDTarget: 900, DLITarget: 39},
			{Week: 11, Stage: "late-flower", VPDMin: 1.30, VPDMax: 1.55, PPFDTarget: 800, DLITarget: 35},
			{Week: 12, Stage: "late-flower", VPDMin: 1.35, VPDMax: 1.60, PPFDTarget: 700, DLITarget: 30},
		},
		"autoflower": {
			{Week: 1, Stage: "germination", VPDMin: 0.40, VPDMax: 0.80, PPFDTarget: 200, DLITarget: 13},
			{Week: 2, Stage: "early-veg", VPDMin: 0.70, VPDMax: 1.00, PPFDTarget: 400, DLITarget: 26},
			{Week: 3, Stage: "mid-veg", VPDMin: 0.90, VPDMax: 1.10, PPFDTarget: 550, DLITarget: 36},
			{Week: 4, Stage: "early-flower", VPDMin: 1.00, VPDMax: 1.25, PPFDTarget: 700, DLITarget: 45},
			{Week: 5, Stage: "mid-flower", VPDMin: 1.10, VPDMax: 1.35, PPFDTarget: 850, DLITarget: 55},
			{Week: 6, Stage: "mid-flower", VPDMin: 1.15, VPDMax: 1.40, PPFDTarget: 900, DLITarget: 58},
			{Week: 7, Stage: "mid-flower", VPDMin: 1.20, VPDMax: 1.45, PPFDTarget: 900, DLITarget: 58},
			{Week: 8, Stage: "late-flower", VPDMin: 1.30, VPDMax: 1.55, PPFDTarget: 800, DLITarget: 52},
			{Week: 9, Stage: "late-flower", VPDMin: 1.35, VPDMax: 1.60, PPFDTarget: 700, DLITarget: 45},
		},
	},
	"tomato": {
		"photoperiod": {
			{Week: 1, Stage: "seedling", VPDMin: 0.40, VPDMax: 0.70, PPFDTarget: 250, DLITarget: 14},
			{Week: 2, Stage: "seedling", VPDMin: 0.50, VPDMax: 0.85, PPFDTarget: 350, DLITarget: 20},
			{Week: 3, Stage: "vegetative", VPDMin: 0.70, VPDMax: 1.00, PPFDTarget: 450, DLITarget: 26},
			{Week: 4, Stage: "vegetative", VPDMin: 0.80, VPDMax: 1.10, PPFDTarget: 550, DLITarget: 32},
			{Week: 5, Stage: "flowering", VPDMin: 0.90, VPDMax: 1.20, PPFDTarget: 600, DLITarget: 35},
			{Week: 6, Stage: "fruiting", VPDMin: 0.95, VPDMax: 1.25, PPFDTarget: 650, DLITarget: 38},
		},
	},
}
