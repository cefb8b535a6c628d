// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/diagnostic"
	x509certs "github.com/H0llyW00dzZ/x509-trust-validator/src/internal/x509/certs"
)

// Status values shown for certificates without a usable revocation record.
const (
	StatusNoData      = "no data"
	StatusTrustAnchor = "trust anchor"
)

// statuses returns the revocation status of every chain member, keyed by
// certificate ID. The most recently produced record about a certificate wins.
func (ch *Chain) statuses(revs []diagnostic.RevocationRecord) map[string]string {
	latest := make(map[string]*diagnostic.RevocationRecord, len(revs))
	for i := range revs {
		r := &revs[i]
		if cur, ok := latest[r.CertificateID]; !ok || r.ProductionDate.After(cur.ProductionDate) {
			latest[r.CertificateID] = r
		}
	}

	out := make(map[string]string, len(ch.Certs))
	for i, cert := range ch.Certs {
		id := x509certs.ID(cert)
		switch r, ok := latest[id]; {
		case ok:
			status := string(r.Status)
			if r.OnHold() {
				status += " (on hold)"
			}
			out[id] = status
		case i == len(ch.Certs)-1 && ch.IsRootNode(cert):
			out[id] = StatusTrustAnchor
		default:
			out[id] = StatusNoData
		}
	}
	return out
}

func statusIcon(status string) string {
	switch {
	case status == string(diagnostic.StatusGood), status == StatusTrustAnchor:
		return "✓"
	case strings.HasPrefix(status, string(diagnostic.StatusRevoked)):
		return "✗"
	default:
		return "?"
	}
}

// RenderASCIITree renders the certificate chain as an ASCII tree diagram.
//
// It displays the certificate hierarchy with visual connectors showing the
// relationship between leaf, intermediate, and root certificates.
//
// Parameters:
//   - revs: Revocation records about the chain members
//
// Returns:
//   - string: ASCII tree representation of the certificate chain
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RenderASCIITree(revs []diagnostic.RevocationRecord) string {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.Certs) == 0 {
		return "No certificates in chain"
	}

	status := ch.statuses(revs)
	var result strings.Builder
	for i, cert := range ch.Certs {
		connector := "├── "
		if i == len(ch.Certs)-1 {
			connector = "└── "
		}

		s := status[x509certs.ID(cert)]
		certInfo := fmt.Sprintf("[%s] %s", statusIcon(s), cert.Subject.CommonName)
		if role := ch.getCertificateRole(i); role != "" {
			certInfo += fmt.Sprintf(" (%s)", role)
		}
		result.WriteString(strings.Repeat("    ", i) + connector + certInfo + ": " + s + "\n")
	}

	return result.String()
}

// RenderTable renders the certificate chain as a formatted markdown table.
//
// Parameters:
//   - revs: Revocation records about the chain members
//
// Returns:
//   - string: Markdown table representation of the certificate chain
//   - error: Error if the table cannot be rendered
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RenderTable(revs []diagnostic.RevocationRecord) (string, error) {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.Certs) == 0 {
		return "No certificates to display", nil
	}

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"#", "Role", "Subject", "Issuer", "Valid Until", "Key", "Status"})

	status := ch.statuses(revs)
	rows := make([][]string, 0, len(ch.Certs))
	for i, cert := range ch.Certs {
		alg, size := x509certs.PublicKey(cert)
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			ch.getCertificateRole(i),
			cert.Subject.CommonName,
			cert.Issuer.CommonName,
			cert.NotAfter.UTC().Format("2006-01-02"),
			fmt.Sprintf("%d-bit %s", size, alg),
			status[x509certs.ID(cert)],
		})
	}

	if err := table.Bulk(rows); err != nil {
		return "", fmt.Errorf("x509chain: render table: %w", err)
	}
	if err := table.Render(); err != nil {
		return "", fmt.Errorf("x509chain: render table: %w", err)
	}
	return buf.String(), nil
}

// ToVisualizationJSON converts the certificate chain to structured JSON for external tools.
//
// Parameters:
//   - revs: Revocation records about the chain members
//   - at: Time the chain was assessed
//
// Returns:
//   - []byte: JSON representation of the certificate chain
//   - error: Error if JSON marshaling fails
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) ToVisualizationJSON(revs []diagnostic.RevocationRecord, at time.Time) ([]byte, error) {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	type CertificateVizData struct {
		Index              int       `json:"index"`
		ID                 string    `json:"id"`
		Role               string    `json:"role"`
		Subject            string    `json:"subject"`
		Issuer             string    `json:"issuer"`
		SerialNumber       string    `json:"serialNumber"`
		SignatureAlgorithm string    `json:"signatureAlgorithm"`
		PublicKeyAlgorithm string    `json:"publicKeyAlgorithm"`
		KeySize            int       `json:"keySize"`
		NotBefore          time.Time `json:"notBefore"`
		NotAfter           time.Time `json:"notAfter"`
		IsCA               bool      `json:"isCA"`
		RevocationStatus   string    `json:"revocationStatus"`
	}

	type RelationshipData struct {
		FromIndex int    `json:"fromIndex"`
		ToIndex   int    `json:"toIndex"`
		Type      string `json:"type"`
	}

	type VisualizationData struct {
		Timestamp     string               `json:"timestamp"`
		ChainLength   int                  `json:"chainLength"`
		Certificates  []CertificateVizData `json:"certificates"`
		Relationships []RelationshipData   `json:"relationships"`
	}

	data := VisualizationData{
		Timestamp:     at.UTC().Format(time.RFC3339),
		ChainLength:   len(ch.Certs),
		Certificates:  make([]CertificateVizData, len(ch.Certs)),
		Relationships: make([]RelationshipData, 0, len(ch.Certs)),
	}

	status := ch.statuses(revs)
	for i, cert := range ch.Certs {
		id := x509certs.ID(cert)
		alg, size := x509certs.PublicKey(cert)
		data.Certificates[i] = CertificateVizData{
			Index:              i,
			ID:                 id,
			Role:               ch.getCertificateRole(i),
			Subject:            cert.Subject.CommonName,
			Issuer:             cert.Issuer.CommonName,
			SerialNumber:       cert.SerialNumber.String(),
			SignatureAlgorithm: cert.SignatureAlgorithm.String(),
			PublicKeyAlgorithm: alg,
			KeySize:            size,
			NotBefore:          cert.NotBefore.UTC(),
			NotAfter:           cert.NotAfter.UTC(),
			IsCA:               cert.IsCA,
			RevocationStatus:   status[id],
		}
	}

	// Each cert is signed by the next one in the chain.
	for i := 0; i < len(ch.Certs)-1; i++ {
		data.Relationships = append(data.Relationships, RelationshipData{
			FromIndex: i,
			ToIndex:   i + 1,
			Type:      "signed_by",
		})
	}

	return json.MarshalIndent(data, "", "  ")
}

// getCertificateRole determines the role of a certificate in the chain.
//
// Thread Safety: Safe for concurrent use (no state modification).
func (ch *Chain) getCertificateRole(index int) string {
	total := len(ch.Certs)
	switch {
	case total == 1:
		return "Self-Signed Certificate"
	case index == 0:
		return "End-Entity Certificate"
	case index == total-1 && ch.IsRootNode(ch.Certs[index]):
		return "Root CA Certificate"
	default:
		return "Intermediate CA Certificate"
	}
}
