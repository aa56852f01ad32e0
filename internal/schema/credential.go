package schema

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// CredentialDefinition is the on-chain layout of an academic credential.
// Field order and types are part of the wire contract with issued attestations.
const CredentialDefinition = "address recipient,string studentName,string degreeName,string institutionName,uint64 dateAwarded"

// Credential field names as declared in CredentialDefinition.
const (
	FieldRecipient       = "recipient"
	FieldStudentName     = "studentName"
	FieldDegreeName      = "degreeName"
	FieldInstitutionName = "institutionName"
	FieldDateAwarded     = "dateAwarded"
)

// Credentials is the parsed CredentialDefinition.
var Credentials = MustParse(CredentialDefinition)

// Credential is the payload of an academic credential attestation.
type Credential struct {
	Recipient       common.Address `json:"recipient"`
	StudentName     string         `json:"studentName"`
	DegreeName      string         `json:"degreeName"`
	InstitutionName string         `json:"institutionName"`
	DateAwarded     uint64         `json:"dateAwarded"` // unix seconds
}

// Values lists the credential in schema order.
func (c Credential) Values() []Value {
	return []Value{
		{Name: FieldRecipient, Type: "address", Value: c.Recipient},
		{Name: FieldStudentName, Type: "string", Value: c.StudentName},
		{Name: FieldDegreeName, Type: "string", Value: c.DegreeName},
		{Name: FieldInstitutionName, Type: "string", Value: c.InstitutionName},
		{Name: FieldDateAwarded, Type: "uint64", Value: c.DateAwarded},
	}
}

// EncodeCredential encodes c with the credential schema.
func EncodeCredential(c Credential) ([]byte, error) {
	return Credentials.EncodeData(c.Values())
}

// DecodeCredential decodes attestation data produced by EncodeCredential.
func DecodeCredential(data []byte) (Credential, error) {
	values, err := Credentials.DecodeData(data)
	if err != nil {
		return Credential{}, err
	}

	var (
		c  Credential
		ok bool
	)
	if c.Recipient, ok = values[0].Value.(common.Address); !ok {
		return Credential{}, fmt.Errorf("decode %s: unexpected %T", FieldRecipient, values[0].Value)
	}
	if c.StudentName, ok = values[1].Value.(string); !ok {
		return Credential{}, fmt.Errorf("decode %s: unexpected %T", FieldStudentName, values[1].Value)
	}
	if c.DegreeName, ok = values[2].Value.(string); !ok {
		return Credential{}, fmt.Errorf("decode %s: unexpected %T", FieldDegreeName, values[2].Value)
	}
	if c.InstitutionName, ok = values[3].Value.(string); !ok {
		return Credential{}, fmt.Errorf("decode %s: unexpected %T", FieldInstitutionName, values[3].Value)
	}
	if c.DateAwarded, ok = values[4].Value.(uint64); !ok {
		return Credential{}, fmt.Errorf("decode %s: unexpected %T", FieldDateAwarded, values[4].Value)
	}
	return c, nil
}
