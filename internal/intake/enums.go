package intake

import "strings"

// Kind of an intake request.
type Kind string

const (
	KindMaintenance Kind = "maintenance"
	KindComplaint   Kind = "complaint"
)

// Canonical maintenance categories.
const (
	MaintenancePlumbing        = "plumbing"
	MaintenanceElectrical      = "electrical"
	MaintenanceAirConditioning = "air_conditioning"
	MaintenanceAppliance       = "appliance"
	MaintenanceCarpentry       = "carpentry"
	MaintenancePainting        = "painting"
	MaintenancePestControl     = "pest_control"
	MaintenanceCleaning        = "cleaning"
	MaintenanceOther           = "other"
)

// Canonical complaint categories.
const (
	ComplaintNoise       = "noise"
	ComplaintNeighbor    = "neighbor"
	ComplaintCleanliness = "cleanliness"
	ComplaintSecurity    = "security"
	ComplaintParking     = "parking"
	ComplaintManagement  = "management"
	ComplaintBilling     = "billing"
	ComplaintOther       = "other"
)

// Canonical priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var MaintenanceCategories = []string{
	MaintenancePlumbing, MaintenanceElectrical, MaintenanceAirConditioning, MaintenanceAppliance,
	MaintenanceCarpentry, MaintenancePainting, MaintenancePestControl, MaintenanceCleaning, MaintenanceOther,
}

var ComplaintCategories = []string{
	ComplaintNoise, ComplaintNeighbor, ComplaintCleanliness, ComplaintSecurity,
	ComplaintParking, ComplaintManagement, ComplaintBilling, ComplaintOther,
}

var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

var maintenanceAliases = map[string]string{
	"plumbing":         MaintenancePlumbing,
	"plumber":          MaintenancePlumbing,
	"water":            MaintenancePlumbing,
	"leak":             MaintenancePlumbing,
	"سباكة":            MaintenancePlumbing,
	"electrical":       MaintenanceElectrical,
	"electric":         MaintenanceElectrical,
	"electricity":      MaintenanceElectrical,
	"كهرباء":           MaintenanceElectrical,
	"air_conditioning": MaintenanceAirConditioning,
	"ac":               MaintenanceAirConditioning,
	"a_c":              MaintenanceAirConditioning,
	"hvac":             MaintenanceAirConditioning,
	"aircon":           MaintenanceAirConditioning,
	"تكييف":            MaintenanceAirConditioning,
	"appliance":        MaintenanceAppliance,
	"appliances":       MaintenanceAppliance,
	"أجهزة":            MaintenanceAppliance,
	"اجهزة":            MaintenanceAppliance,
	"carpentry":        MaintenanceCarpentry,
	"doors":            MaintenanceCarpentry,
	"نجارة":            MaintenanceCarpentry,
	"painting":         MaintenancePainting,
	"paint":            MaintenancePainting,
	"دهان":             MaintenancePainting,
	"pest_control":     MaintenancePestControl,
	"pests":            MaintenancePestControl,
	"pest":             MaintenancePestControl,
	"مكافحة_حشرات":     MaintenancePestControl,
	"cleaning":         MaintenanceCleaning,
	"تنظيف":            MaintenanceCleaning,
	"other":            MaintenanceOther,
	"general":          MaintenanceOther,
	"أخرى":             MaintenanceOther,
	"اخرى":             MaintenanceOther,
}

var complaintAliases = map[string]string{
	"noise":       ComplaintNoise,
	"noisy":       ComplaintNoise,
	"إزعاج":       ComplaintNoise,
	"ازعاج":       ComplaintNoise,
	"neighbor":    ComplaintNeighbor,
	"neighbour":   ComplaintNeighbor,
	"neighbors":   ComplaintNeighbor,
	"الجيران":     ComplaintNeighbor,
	"جيران":       ComplaintNeighbor,
	"cleanliness": ComplaintCleanliness,
	"hygiene":     ComplaintCleanliness,
	"cleaning":    ComplaintCleanliness,
	"نظافة":       ComplaintCleanliness,
	"security":    ComplaintSecurity,
	"safety":      ComplaintSecurity,
	"أمن":         ComplaintSecurity,
	"امن":         ComplaintSecurity,
	"parking":     ComplaintParking,
	"مواقف":       ComplaintParking,
	"management":  ComplaintManagement,
	"staff":       ComplaintManagement,
	"service":     ComplaintManagement,
	"الإدارة":     ComplaintManagement,
	"الادارة":     ComplaintManagement,
	"billing":     ComplaintBilling,
	"payment":     ComplaintBilling,
	"invoice":     ComplaintBilling,
	"فواتير":      ComplaintBilling,
	"other":       ComplaintOther,
	"أخرى":        ComplaintOther,
	"اخرى":        ComplaintOther,
}

var priorityAliases = map[string]string{
	"low":       PriorityLow,
	"minor":     PriorityLow,
	"منخفضة":    PriorityLow,
	"medium":    PriorityMedium,
	"normal":    PriorityMedium,
	"moderate":  PriorityMedium,
	"متوسطة":    PriorityMedium,
	"high":      PriorityHigh,
	"important": PriorityHigh,
	"عالية":     PriorityHigh,
	"urgent":    PriorityUrgent,
	"emergency": PriorityUrgent,
	"critical":  PriorityUrgent,
	"عاجلة":     PriorityUrgent,
	"طارئة":     PriorityUrgent,
}

// option id prefixes used by the conversation menus
var tokenPrefixes = []string{"maintenance_", "maint_", "complaint_", "priority_"}

// normalizeToken lower-cases, trims, unifies separators and strips known
// option prefixes.
func normalizeToken(token string) string {
	t := strings.ToLower(strings.TrimSpace(token))
	t = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '/', '.':
			return '_'
		}
		return r
	}, t)
	for strings.Contains(t, "__") {
		t = strings.ReplaceAll(t, "__", "_")
	}
	t = strings.Trim(t, "_")
	for _, prefix := range tokenPrefixes {
		if rest, ok := strings.CutPrefix(t, prefix); ok && rest != "" {
			t = rest
			break
		}
	}
	return t
}

// NormalizeCategory maps a selection token onto the canonical categories of
// kind. An unmapped non-empty token yields "other" with degraded set.
func NormalizeCategory(kind Kind, token string) (category string, degraded bool) {
	aliases, fallback := maintenanceAliases, MaintenanceOther
	if kind == KindComplaint {
		aliases, fallback = complaintAliases, ComplaintOther
	}
	if canonical, ok := aliases[normalizeToken(token)]; ok {
		return canonical, false
	}
	return fallback, true
}

// NormalizePriority maps a selection token onto the canonical priorities. An
// empty token is the medium default; an unmapped one is medium with degraded set.
func NormalizePriority(token string) (priority string, degraded bool) {
	t := normalizeToken(token)
	if t == "" {
		return PriorityMedium, false
	}
	if canonical, ok := priorityAliases[t]; ok {
		return canonical, false
	}
	return PriorityMedium, true
}

// IsCanonical reports whether value is a canonical category of kind.
func IsCanonical(kind Kind, value string) bool {
	list := MaintenanceCategories
	if kind == KindComplaint {
		list = ComplaintCategories
	}
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
