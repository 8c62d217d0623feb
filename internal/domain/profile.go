package domain

type Role string

const (
	RoleUnknown          Role = "unknown"
	RolePatient          Role = "patient"
	RoleHealthcareWorker Role = "healthcare_worker"
	RoleAdmin            Role = "admin"
)

// HWProfile is the healthcare worker profile document maintained by a facility admin.
type HWProfile struct {
	ID                string `json:"id"`
	Bech32Address     string `json:"bech32Address"`
	Name              string `json:"name"`
	JobTitle          string `json:"job_title"`
	Sex               string `json:"sex"`
	FacilityID        string `json:"facilityId"`
	FacilityName      string `json:"facilityName"`
	IsLicenseVerified *bool  `json:"is_license_verified,omitempty"`
}

// Authorization is the per-session view of an actor's right to author remote-visible records.
// It is derived on every fetch and never persisted.
type Authorization struct {
	Identity        string
	Name            string
	RoleTitle       string
	Facility        string
	LicenseVerified bool
}

func NewAuthorization(profile HWProfile, licenseVerified bool) Authorization {
	identity := profile.Bech32Address
	if identity == "" {
		identity = profile.ID
	}
	return Authorization{
		Identity:        identity,
		Name:            profile.Name,
		RoleTitle:       profile.JobTitle,
		Facility:        profile.FacilityName,
		LicenseVerified: licenseVerified,
	}
}

type RoleDocument struct {
	Role Role `json:"role"`
}

// Linkage maps a patient's identity to the record set holding their health records.
type Linkage struct {
	PatientAddress string `json:"patientAddress"`
	LinkedUUID     string `json:"linkedUUID"`
}
