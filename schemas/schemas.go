package schemas

const (
	CollectionRoles            string = "roles"
	CollectionProfiles         string = "HWProfiles"
	CollectionHealthRecords    string = "health_records"
	CollectionLinkage          string = "patient_linkage"
	CollectionLicenseProofs    string = "license_proofs"
	CollectionAntenatalLogs    string = "antenatal_logs"
	CollectionImmunizationLogs string = "immunization_logs"
)

// Document schemas keyed by collection. Writes to a collection without a schema are rejected.
var Documents = map[string]string{
	CollectionRoles:            roleSchema,
	CollectionProfiles:         profileSchema,
	CollectionLinkage:          linkageSchema,
	CollectionLicenseProofs:    proofSchema,
	CollectionHealthRecords:    entrySchema,
	CollectionAntenatalLogs:    entrySchema,
	CollectionImmunizationLogs: entrySchema,
}

const roleSchema = `{
  "type": "object",
  "required": ["role"],
  "properties": {
    "role": {"type": "string", "enum": ["healthcare_worker", "patient", "admin"]}
  }
}`

const profileSchema = `{
  "type": "object",
  "required": ["bech32Address", "name", "job_title", "facilityName"],
  "properties": {
    "id": {"type": "string"},
    "bech32Address": {"type": "string", "minLength": 1},
    "name": {"type": "string", "minLength": 1},
    "job_title": {"type": "string", "minLength": 1},
    "sex": {"type": "string"},
    "facilityId": {"type": "string"},
    "facilityName": {"type": "string", "minLength": 1},
    "is_license_verified": {"type": "boolean"}
  }
}`

const linkageSchema = `{
  "type": "object",
  "required": ["patientAddress", "linkedUUID"],
  "properties": {
    "patientAddress": {"type": "string", "minLength": 1},
    "linkedUUID": {"type": "string", "minLength": 1}
  }
}`

const proofSchema = `{
  "type": "object",
  "required": ["claimInfo", "signedClaim"],
  "properties": {
    "claimInfo": {
      "type": "object",
      "required": ["provider"],
      "properties": {
        "provider": {"type": "string", "minLength": 1},
        "parameters": {"type": "string"},
        "context": {"type": "string"}
      }
    },
    "signedClaim": {
      "type": "object",
      "required": ["claim", "signatures"],
      "properties": {
        "claim": {"type": "object", "required": ["identifier", "owner"]},
        "signatures": {"type": "array", "minItems": 1, "items": {"type": "string"}}
      }
    }
  }
}`

const entrySchema = `{
  "type": "object",
  "required": ["id", "timestamp", "payload", "authoredBy", "status"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "timestamp": {"type": "string", "format": "date-time"},
    "authoredBy": {"type": "string", "minLength": 1},
    "signature": {"type": "string"},
    "status": {"type": "string"},
    "payload": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {"type": "string", "enum": ["antenatal", "immunization"]}
      }
    }
  }
}`
