// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package indication defines the closed set of validation outcomes shared by every
// building block: the main Indication and its refining SubIndication.
package indication

// Indication is the main status of a validation outcome.
type Indication string

const (
	// Passed means every consulted check succeeded.
	Passed Indication = "PASSED"
	// Indeterminate means the available data did not allow a conclusive verdict.
	Indeterminate Indication = "INDETERMINATE"
	// Failed means a check failed in a way no additional data can fix.
	Failed Indication = "FAILED"
	// TotalPassed is the signature-level roll-up of Passed.
	TotalPassed Indication = "TOTAL_PASSED"
	// TotalFailed is the signature-level roll-up of Failed.
	TotalFailed Indication = "TOTAL_FAILED"
)

// SubIndication refines an Indication with the reason of the outcome.
type SubIndication string

// None is the zero SubIndication, used with Passed.
const None SubIndication = ""

const (
	FormatFailure                       SubIndication = "FORMAT_FAILURE"
	HashFailure                         SubIndication = "HASH_FAILURE"
	SigCryptoFailure                    SubIndication = "SIG_CRYPTO_FAILURE"
	Revoked                             SubIndication = "REVOKED"
	NotYetValid                         SubIndication = "NOT_YET_VALID"
	ChainConstraintsFailure             SubIndication = "CHAIN_CONSTRAINTS_FAILURE"
	CertificateChainGeneralFailure      SubIndication = "CERTIFICATE_CHAIN_GENERAL_FAILURE"
	CryptoConstraintsFailure            SubIndication = "CRYPTO_CONSTRAINTS_FAILURE"
	CryptoConstraintsFailureNoPOE       SubIndication = "CRYPTO_CONSTRAINTS_FAILURE_NO_POE"
	NoCertificateChainFound             SubIndication = "NO_CERTIFICATE_CHAIN_FOUND"
	NoCertificateChainFoundNoPOE        SubIndication = "NO_CERTIFICATE_CHAIN_FOUND_NO_POE"
	RevokedNoPOE                        SubIndication = "REVOKED_NO_POE"
	RevokedCANoPOE                      SubIndication = "REVOKED_CA_NO_POE"
	OutOfBoundsNoPOE                    SubIndication = "OUT_OF_BOUNDS_NO_POE"
	OutOfBoundsNotRevoked               SubIndication = "OUT_OF_BOUNDS_NOT_REVOKED"
	RevocationOutOfBoundsNoPOE          SubIndication = "REVOCATION_OUT_OF_BOUNDS_NO_POE"
	NoPOE                               SubIndication = "NO_POE"
	TryLater                            SubIndication = "TRY_LATER"
	SignedDataNotFound                  SubIndication = "SIGNED_DATA_NOT_FOUND"
	NoSigningCertificateFound           SubIndication = "NO_SIGNING_CERTIFICATE_FOUND"
	TimestampOrderFailure               SubIndication = "TIMESTAMP_ORDER_FAILURE"
	PolicyProcessingError               SubIndication = "POLICY_PROCESSING_ERROR"
	SignaturePolicyNotAvailable         SubIndication = "SIGNATURE_POLICY_NOT_AVAILABLE"
	ExpiredSubIndication                SubIndication = "EXPIRED"
	CertificateChainNotTrustedAtTimeNow SubIndication = "NO_VALID_TRUST_AT_CONTROL_TIME"
)

// pastValidationEntry lists the sub-indications for which a past (POE-based)
// re-evaluation may still recover a PASSED verdict.
var pastValidationEntry = map[SubIndication]struct{}{
	RevokedNoPOE:                  {},
	RevokedCANoPOE:                {},
	OutOfBoundsNoPOE:              {},
	CryptoConstraintsFailureNoPOE: {},
}

// IsNoPOE reports whether sub is one of the "no proof of existence" sub-indications
// that make past validation worth running.
func IsNoPOE(sub SubIndication) bool {
	_, ok := pastValidationEntry[sub]
	return ok
}

// PastValidationEntrySet returns a copy of the sub-indications that open past validation.
func PastValidationEntrySet() []SubIndication {
	return []SubIndication{RevokedNoPOE, RevokedCANoPOE, OutOfBoundsNoPOE, CryptoConstraintsFailureNoPOE}
}

// IsConclusive reports whether an outcome needs no further search back in time:
// PASSED, or any FAILED.
func IsConclusive(ind Indication) bool {
	switch ind {
	case Passed, TotalPassed, Failed, TotalFailed:
		return true
	default:
		return false
	}
}

// IsRecoverable reports whether re-running with fresher data could change the outcome.
func IsRecoverable(ind Indication, sub SubIndication) bool {
	return ind == Indeterminate && (sub == TryLater || IsNoPOE(sub))
}

// Total maps a building-block indication to its signature-level roll-up.
func Total(ind Indication) Indication {
	switch ind {
	case Passed:
		return TotalPassed
	case Failed:
		return TotalFailed
	default:
		return ind
	}
}
