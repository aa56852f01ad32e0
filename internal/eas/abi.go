package eas

import (
	"fmt"
	"math/big"
	"strings"

	gethAbi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// The subset of the EAS and SchemaRegistry interfaces rootcred calls.
const easABIJSON = `[
  {"type":"function","name":"attest","stateMutability":"payable",
   "inputs":[{"name":"request","type":"tuple","components":[
     {"name":"schema","type":"bytes32"},
     {"name":"data","type":"tuple","components":[
       {"name":"recipient","type":"address"},
       {"name":"expirationTime","type":"uint64"},
       {"name":"revocable","type":"bool"},
       {"name":"refUID","type":"bytes32"},
       {"name":"data","type":"bytes"},
       {"name":"value","type":"uint256"}]}]}],
   "outputs":[{"name":"","type":"bytes32"}]},
  {"type":"function","name":"getAttestation","stateMutability":"view",
   "inputs":[{"name":"uid","type":"bytes32"}],
   "outputs":[{"name":"","type":"tuple","components":[
     {"name":"uid","type":"bytes32"},
     {"name":"schema","type":"bytes32"},
     {"name":"time","type":"uint64"},
     {"name":"expirationTime","type":"uint64"},
     {"name":"revocationTime","type":"uint64"},
     {"name":"refUID","type":"bytes32"},
     {"name":"recipient","type":"address"},
     {"name":"attester","type":"address"},
     {"name":"revocable","type":"bool"},
     {"name":"data","type":"bytes"}]}]},
  {"type":"event","name":"Attested","anonymous":false,
   "inputs":[
     {"name":"recipient","type":"address","indexed":true},
     {"name":"attester","type":"address","indexed":true},
     {"name":"uid","type":"bytes32","indexed":false},
     {"name":"schemaUID","type":"bytes32","indexed":true}]}
]`

const schemaRegistryABIJSON = `[
  {"type":"function","name":"register","stateMutability":"nonpayable",
   "inputs":[
     {"name":"schema","type":"string"},
     {"name":"resolver","type":"address"},
     {"name":"revocable","type":"bool"}],
   "outputs":[{"name":"","type":"bytes32"}]}
]`

const (
	methodAttest         = "attest"
	methodGetAttestation = "getAttestation"
	methodRegister       = "register"
	eventAttested        = "Attested"
)

var (
	easABI            gethAbi.ABI
	schemaRegistryABI gethAbi.ABI
)

func init() {
	var err error
	easABI, err = gethAbi.JSON(strings.NewReader(easABIJSON))
	if err != nil {
		panic(fmt.Sprintf("eas: failed to parse EAS ABI: %v", err))
	}
	schemaRegistryABI, err = gethAbi.JSON(strings.NewReader(schemaRegistryABIJSON))
	if err != nil {
		panic(fmt.Sprintf("eas: failed to parse SchemaRegistry ABI: %v", err))
	}
}

// attestationRequest mirrors the AttestationRequest tuple.
type attestationRequest struct {
	Schema [32]byte
	Data   attestationRequestData
}

// attestationRequestData mirrors the AttestationRequestData tuple.
type attestationRequestData struct {
	Recipient      common.Address
	ExpirationTime uint64
	Revocable      bool
	RefUID         [32]byte
	Data           []byte
	Value          *big.Int
}

// attestationTuple mirrors the Attestation tuple returned by getAttestation.
// Field order matches the ABI.
type attestationTuple struct {
	Uid            [32]byte
	Schema         [32]byte
	Time           uint64
	ExpirationTime uint64
	RevocationTime uint64
	RefUID         [32]byte
	Recipient      common.Address
	Attester       common.Address
	Revocable      bool
	Data           []byte
}

func (t attestationTuple) toAttestation() *Attestation {
	return &Attestation{
		UID:            common.Hash(t.Uid),
		Schema:         common.Hash(t.Schema),
		Time:           t.Time,
		ExpirationTime: t.ExpirationTime,
		RevocationTime: t.RevocationTime,
		RefUID:         common.Hash(t.RefUID),
		Recipient:      t.Recipient,
		Attester:       t.Attester,
		Revocable:      t.Revocable,
		Data:           t.Data,
	}
}
