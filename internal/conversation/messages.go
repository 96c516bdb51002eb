package conversation

import "property_service_backend/internal/session"

// catalog is the fixed string table of one reply language.
type catalog struct {
	mainMenuHeader        string
	mainMenuBody          string
	menuButton            string
	menuFooter            string
	maintenanceTypeBody   string
	priorityBody          string
	descriptionPrompt     string
	complaintCategoryBody string
	complaintDescription  string
	maintenanceConfirmFmt string
	complaintConfirmFmt   string
	renewalConfirmFmt     string
	contactOffice         string
	retryLater            string
	idleHint              string
	noOpenRequests        string
	openRequestsHeader    string
	openRequestLineFmt    string
	paymentFmt            string
	paymentUnitFmt        string
	noContract            string
	supportFmt            string
	supportNoPhone        string
	options               map[string]string
	optionDescriptions    map[string]string
}

// The language prompt is shown before a language is known, so it carries both.
const (
	languagePromptBody   = "Welcome! Please choose your language.\nمرحباً بك! يرجى اختيار اللغة."
	languagePromptFooter = "Reply 1 or 2 | أرسل 1 أو 2"
)

var catalogs = map[session.Language]catalog{
	session.LanguageEnglish: {
		mainMenuHeader:        "Tenant services",
		mainMenuBody:          "How can we help you today?",
		menuButton:            "Choose",
		menuFooter:            "Reply with a number, or send \"menu\" at any time.",
		maintenanceTypeBody:   "What kind of maintenance do you need?",
		priorityBody:          "How urgent is it?",
		descriptionPrompt:     "Please describe the problem in a few words.",
		complaintCategoryBody: "What is your complaint about?",
		complaintDescription:  "Please describe your complaint.",
		maintenanceConfirmFmt: "Thank you. Your maintenance request %s has been registered and our team will contact you soon.",
		complaintConfirmFmt:   "Thank you. Your complaint %s has been registered and will be reviewed by management.",
		renewalConfirmFmt:     "Your renewal request %s has been sent to our leasing team. They will contact you to discuss the new terms.",
		contactOffice:         "We could not find an account linked to this number. Please contact our office so we can update your details.",
		retryLater:            "Sorry, something went wrong on our side. Please try again in a few minutes.",
		idleHint:              "Send \"menu\" to see the main menu again.",
		noOpenRequests:        "You have no open requests.",
		openRequestsHeader:    "Your open requests:",
		openRequestLineFmt:    "%s | %s | %s | %s",
		paymentFmt:            "Monthly rent: %s\nContract: %s to %s (%d days remaining)",
		paymentUnitFmt:        "Unit: %s",
		noContract:            "We could not find an active contract for your account. Please contact our office.",
		supportFmt:            "You can reach our office at %s.\nOffice hours: %s",
		supportNoPhone:        "Our team will get back to you here.\nOffice hours: %s",
		options:               map[string]string{
			optMaintenance:           "Maintenance request",
			optComplaint:             "Submit a complaint",
			optRequestStatus:         "My requests",
			optPayment:               "Rent & payments",
			optRenewal:               "Contract renewal",
			optSupport:               "Customer support",
			optChangeLanguage:        "Change language",
			"maint_plumbing":         "Plumbing",
			"maint_electrical":       "Electrical",
			"maint_air_conditioning": "Air conditioning",
			"maint_appliance":        "Appliances",
			"maint_carpentry":        "Carpentry & doors",
			"maint_painting":         "Painting",
			"maint_pest_control":     "Pest control",
			"maint_cleaning":         "Cleaning",
			"maint_other":            "Other",
			"priority_low":           "Low",
			"priority_medium":        "Medium",
			"priority_high":          "High",
			"priority_urgent":        "Urgent",
			"complaint_noise":        "Noise",
			"complaint_neighbor":     "Neighbors",
			"complaint_cleanliness":  "Cleanliness",
			"complaint_security":     "Security",
			"complaint_parking":      "Parking",
			"complaint_management":   "Management",
			"complaint_billing":      "Billing",
			"complaint_other":        "Other",
		},
		optionDescriptions: map[string]string{
			"priority_low":    "Can wait a week",
			"priority_medium": "Within a few days",
			"priority_high":   "Within 24 hours",
			"priority_urgent": "Emergency or safety risk",
		},
	},
	session.LanguageArabic: {
		mainMenuHeader:        "خدمات المستأجرين",
		mainMenuBody:          "كيف يمكننا مساعدتك اليوم؟",
		menuButton:            "اختر",
		menuFooter:            "أرسل رقم الخيار، أو أرسل \"القائمة\" في أي وقت.",
		maintenanceTypeBody:   "ما نوع الصيانة المطلوبة؟",
		priorityBody:          "ما مدى الاستعجال؟",
		descriptionPrompt:     "يرجى وصف المشكلة باختصار.",
		complaintCategoryBody: "ما موضوع الشكوى؟",
		complaintDescription:  "يرجى وصف الشكوى.",
		maintenanceConfirmFmt: "شكراً لك. تم تسجيل طلب الصيانة رقم %s وسيتواصل معك فريقنا قريباً.",
		complaintConfirmFmt:   "شكراً لك. تم تسجيل الشكوى رقم %s وستتم مراجعتها من قبل الإدارة.",
		renewalConfirmFmt:     "تم إرسال طلب التجديد رقم %s إلى فريق التأجير وسيتواصلون معك لمناقشة الشروط الجديدة.",
		contactOffice:         "لم نتمكن من العثور على حساب مرتبط بهذا الرقم. يرجى التواصل مع المكتب لتحديث بياناتك.",
		retryLater:            "عذراً، حدث خطأ من جهتنا. يرجى المحاولة مرة أخرى بعد دقائق.",
		idleHint:              "أرسل \"القائمة\" لعرض القائمة الرئيسية مرة أخرى.",
		noOpenRequests:        "لا توجد لديك طلبات مفتوحة.",
		openRequestsHeader:    "طلباتك المفتوحة:",
		openRequestLineFmt:    "%s | %s | %s | %s",
		paymentFmt:            "الإيجار الشهري: %s\nالعقد: من %s إلى %s (متبقي %d يوم)",
		paymentUnitFmt:        "الوحدة: %s",
		noContract:            "لم نتمكن من العثور على عقد ساري لحسابك. يرجى التواصل مع المكتب.",
		supportFmt:            "يمكنك التواصل مع المكتب على الرقم %s.\nساعات العمل: %s",
		supportNoPhone:        "سيتواصل معك فريقنا هنا.\nساعات العمل: %s",
		options:               map[string]string{
			optMaintenance:           "طلب صيانة",
			optComplaint:             "تقديم شكوى",
			optRequestStatus:         "طلباتي",
			optPayment:               "الإيجار والدفعات",
			optRenewal:               "تجديد العقد",
			optSupport:               "خدمة العملاء",
			optChangeLanguage:        "تغيير اللغة",
			"maint_plumbing":         "سباكة",
			"maint_electrical":       "كهرباء",
			"maint_air_conditioning": "تكييف",
			"maint_appliance":        "أجهزة منزلية",
			"maint_carpentry":        "نجارة وأبواب",
			"maint_painting":         "دهان",
			"maint_pest_control":     "مكافحة حشرات",
			"maint_cleaning":         "تنظيف",
			"maint_other":            "أخرى",
			"priority_low":           "منخفضة",
			"priority_medium":        "متوسطة",
			"priority_high":          "عالية",
			"priority_urgent":        "عاجلة",
			"complaint_noise":        "إزعاج",
			"complaint_neighbor":     "الجيران",
			"complaint_cleanliness":  "النظافة",
			"complaint_security":     "الأمن",
			"complaint_parking":      "المواقف",
			"complaint_management":   "الإدارة",
			"complaint_billing":      "الفواتير",
			"complaint_other":        "أخرى",
		},
		optionDescriptions: map[string]string{
			"priority_low":    "يمكن الانتظار أسبوعاً",
			"priority_medium": "خلال أيام",
			"priority_high":   "خلال 24 ساعة",
			"priority_urgent": "حالة طارئة أو خطر",
		},
	},
}

func textsFor(lang session.Language) catalog {
	if c, ok := catalogs[lang]; ok {
		return c
	}
	return catalogs[session.LanguageEnglish]
}
