package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/roach88/stembed/internal/model"
	"github.com/roach88/stembed/internal/theory"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows migrating the encoding later.
const (
	DomainImplementation = "stembed/implementation/v1"
	DomainSpacetime      = "stembed/spacetime/v1"
	DomainRequest        = "stembed/request/v1"
)

// ErrNotFingerprintable is returned for requests whose theory carries a
// custom exception predicate; functions have no content identity.
var ErrNotFingerprintable = errors.New("theory with custom exception has no fingerprint")

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex.
// The null separator keeps domain and data from running together.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ImplementationObject is the canonical form of an implementation.
//
// Node and edge order follow insertion order, which fixes the solver's
// search order; two implementations differing only in insertion order are
// distinct. Component metadata is descriptive and excluded.
func ImplementationObject(impl *model.Implementation) Object {
	fpo := impl.FPO()
	obj := Object{
		"name":     String(impl.Name()),
		"inputs":   Strings(fpo.Inputs()),
		"outputs":  Strings(fpo.Outputs()),
		"internal": Strings(fpo.Internal()),
	}
	if p := impl.Process(); p != nil {
		obj["process"] = Object{
			"name":    String(p.Name()),
			"inputs":  Strings(p.Inputs()),
			"outputs": Strings(p.Outputs()),
		}
	}

	edges := Array{}
	for _, e := range impl.Edges() {
		edges = append(edges, Object{
			"from":     String(e.From),
			"to":       String(e.To),
			"resource": String(e.Resource.String()),
		})
	}
	obj["edges"] = edges

	comps := Array{}
	for _, c := range impl.Components() {
		comps = append(comps, Object{
			"label":       String(c.Label),
			"node":        String(c.NodeID()),
			"class":       String(c.Class.String()),
			"resource":    String(c.Resource.String()),
			"measurement": Bool(c.Measurement),
		})
	}
	obj["components"] = comps
	return obj
}

// SpacetimeObject is the canonical form of a spacetime.
func SpacetimeObject(st *model.Spacetime) Object {
	rels := Array{}
	for _, r := range st.Relations() {
		rels = append(rels, Array{String(r.From), String(r.To)})
	}
	return Object{
		"name":      String(st.Name),
		"points":    Strings(st.Points()),
		"relations": rels,
	}
}

// ImplementationFingerprint returns the content address of impl.
func ImplementationFingerprint(impl *model.Implementation) (string, error) {
	data, err := Marshal(ImplementationObject(impl))
	if err != nil {
		return "", fmt.Errorf("ImplementationFingerprint: %w", err)
	}
	return hashWithDomain(DomainImplementation, data), nil
}

// SpacetimeFingerprint returns the content address of st.
func SpacetimeFingerprint(st *model.Spacetime) (string, error) {
	data, err := Marshal(SpacetimeObject(st))
	if err != nil {
		return "", fmt.Errorf("SpacetimeFingerprint: %w", err)
	}
	return hashWithDomain(DomainSpacetime, data), nil
}

// RequestFingerprint identifies a solve question: implementation,
// spacetime, theory configuration and pins. The timeout is excluded;
// only definitive results are keyed by it and those do not depend on it.
func RequestFingerprint(impl *model.Implementation, st *model.Spacetime, th theory.Theory, pins map[string]string) (string, error) {
	if th.CustomException() {
		return "", ErrNotFingerprintable
	}
	implFP, err := ImplementationFingerprint(impl)
	if err != nil {
		return "", err
	}
	stFP, err := SpacetimeFingerprint(st)
	if err != nil {
		return "", err
	}
	pinObj := make(Object, len(pins))
	for k, v := range pins {
		pinObj[k] = String(v)
	}
	data, err := Marshal(Object{
		"implementation": String(implFP),
		"spacetime":      String(stFP),
		"theory":         String(th.Name()),
		"max_nonlocal":   Int(th.MaxNonlocal()),
		"pins":           pinObj,
	})
	if err != nil {
		return "", fmt.Errorf("RequestFingerprint: %w", err)
	}
	return hashWithDomain(DomainRequest, data), nil
}
