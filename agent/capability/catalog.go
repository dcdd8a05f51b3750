package capability

import (
	"github.com/cloudwego/eino/schema"
)

// Capability names form a closed set. The model can only reach what is
// listed here.
const (
	CapabilityDoctorAvailability = "get_doctor_availability"
	CapabilityBookAppointment    = "book_appointment"
	CapabilitySendPatientEmail   = "send_patient_email"
	CapabilityDoctorStats        = "get_doctor_stats"
	CapabilityDoctorNotification = "send_doctor_notification"
	CapabilityListDoctors        = "list_doctors"
)

// requiredParams drives gateway-side argument validation. Keys missing
// here are unknown capabilities.
var requiredParams = map[string][]string{
	CapabilityDoctorAvailability: {"doctor_name", "date"},
	CapabilityBookAppointment:    {"patient_name", "patient_email", "doctor_name", "appointment_date", "appointment_time"},
	CapabilitySendPatientEmail:   {"patient_email", "appointment_id", "subject", "message"},
	CapabilityDoctorStats:        {"doctor_name", "start_date", "end_date"},
	CapabilityDoctorNotification: {"doctor_email", "notification_type", "title", "message"},
	CapabilityListDoctors:        nil,
}

// Required returns the required parameters for a capability name. The
// second return is false for names outside the catalog.
func Required(name string) ([]string, bool) {
	params, ok := requiredParams[name]
	return params, ok
}

// Catalog returns the tool schema advertised to the chat model.
func Catalog() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: CapabilityDoctorAvailability,
			Desc: "Get available appointment slots for a specific doctor on a given date. Returns list of available time slots.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"doctor_name": {Type: schema.String, Desc: "Full name of the doctor (e.g., 'Dr. Rajesh Ahuja')", Required: true},
				"date":        {Type: schema.String, Desc: "Date in YYYY-MM-DD format", Required: true},
			}),
		},
		{
			Name: CapabilityBookAppointment,
			Desc: "Book an appointment for a patient with a doctor at a specific date and time. Creates database entry and calendar event.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"patient_name":     {Type: schema.String, Desc: "Full name of the patient", Required: true},
				"patient_email":    {Type: schema.String, Desc: "Email address of the patient", Required: true},
				"doctor_name":      {Type: schema.String, Desc: "Full name of the doctor", Required: true},
				"appointment_date": {Type: schema.String, Desc: "Date in YYYY-MM-DD format", Required: true},
				"appointment_time": {Type: schema.String, Desc: "Time in HH:MM format (24-hour)", Required: true},
				"symptoms":         {Type: schema.String, Desc: "Patient's symptoms or reason for visit"},
			}),
		},
		{
			Name: CapabilitySendPatientEmail,
			Desc: "Send appointment confirmation email to patient with appointment details.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"patient_email":  {Type: schema.String, Desc: "Email address of the patient", Required: true},
				"appointment_id": {Type: schema.Integer, Desc: "ID of the appointment", Required: true},
				"subject":        {Type: schema.String, Desc: "Email subject line", Required: true},
				"message":        {Type: schema.String, Desc: "Email body content", Required: true},
			}),
		},
		{
			Name: CapabilityDoctorStats,
			Desc: "Get statistics and summary data for a doctor including appointment counts, patient visits, and symptom analysis.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"doctor_name": {Type: schema.String, Desc: "Full name of the doctor", Required: true},
				"start_date":  {Type: schema.String, Desc: "Start date for stats in YYYY-MM-DD format", Required: true},
				"end_date":    {Type: schema.String, Desc: "End date for stats in YYYY-MM-DD format", Required: true},
			}),
		},
		{
			Name: CapabilityDoctorNotification,
			Desc: "Send notification to doctor with summary report or alert.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"doctor_email":      {Type: schema.String, Desc: "Email address of the doctor", Required: true},
				"notification_type": {Type: schema.String, Desc: "Type of notification", Enum: []string{"report", "alert", "reminder"}, Required: true},
				"title":             {Type: schema.String, Desc: "Notification title", Required: true},
				"message":           {Type: schema.String, Desc: "Notification content", Required: true},
			}),
		},
		{
			Name: CapabilityListDoctors,
			Desc: "List all available doctors with their specializations and availability.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"specialization": {Type: schema.String, Desc: "Optional: Filter by specialization"},
			}),
		},
	}
}
