// Package ontology reads an OWL file serialised as RDF/XML into a read-only
// triple index keyed by local names.
package ontology

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/knakk/rdf"
)

const rdfType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

// Graph indexes the individuals, class memberships, object properties and
// datatype properties of an ontology. It is immutable after Decode.
type Graph struct {
	order    []string
	seen     map[string]bool
	types    map[string][]string
	objects  map[string]map[string][]string
	literals map[string]map[string][]string
	triples  int
}

// Load opens and decodes the ontology file at path.
func Load(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ontology: %w", err)
	}
	defer f.Close()

	g, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	slog.Info("ontology loaded", "path", path, "triples", g.triples, "subjects", len(g.order))
	return g, nil
}

// Decode reads RDF/XML triples from r.
func Decode(r io.Reader) (*Graph, error) {
	g := &Graph{
		seen:     make(map[string]bool),
		types:    make(map[string][]string),
		objects:  make(map[string]map[string][]string),
		literals: make(map[string]map[string][]string),
	}

	dec := rdf.NewTripleDecoder(r, rdf.RDFXML)
	for {
		tr, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		g.add(tr)
	}

	if g.triples == 0 {
		return nil, fmt.Errorf("no triples found")
	}
	return g, nil
}

func (g *Graph) add(tr rdf.Triple) {
	g.triples++
	subj := LocalName(tr.Subj.String())
	pred := tr.Pred.String()

	if !g.seen[subj] {
		g.seen[subj] = true
		g.order = append(g.order, subj)
	}

	switch {
	case pred == rdfType:
		g.types[subj] = append(g.types[subj], LocalName(tr.Obj.String()))
	case tr.Obj.Type() == rdf.TermLiteral:
		appendTo(g.literals, subj, LocalName(pred), tr.Obj.String())
	default:
		appendTo(g.objects, subj, LocalName(pred), LocalName(tr.Obj.String()))
	}
}

func appendTo(idx map[string]map[string][]string, subj, pred, val string) {
	props, ok := idx[subj]
	if !ok {
		props = make(map[string][]string)
		idx[subj] = props
	}
	props[pred] = append(props[pred], val)
}

// IndividualsOf returns the subjects typed with class, in document order.
func (g *Graph) IndividualsOf(class string) []string {
	var out []string
	for _, subj := range g.order {
		if g.IsA(subj, class) {
			out = append(out, subj)
		}
	}
	return out
}

// IsA reports whether subject is declared an instance of class.
func (g *Graph) IsA(subject, class string) bool {
	for _, c := range g.types[subject] {
		if c == class {
			return true
		}
	}
	return false
}

// Objects returns the targets of an object property on subject.
func (g *Graph) Objects(subject, property string) []string {
	return g.objects[subject][property]
}

// Literal returns the first value of a datatype property on subject.
func (g *Graph) Literal(subject, property string) (string, bool) {
	vals := g.literals[subject][property]
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// Triples returns the number of triples read.
func (g *Graph) Triples() int {
	return g.triples
}

// LocalName strips the namespace from an IRI: everything up to the last
// '#' or '/'.
func LocalName(iri string) string {
	iri = strings.TrimSuffix(strings.TrimPrefix(iri, "<"), ">")
	if i := strings.LastIndexAny(iri, "#/"); i >= 0 && i < len(iri)-1 {
		return iri[i+1:]
	}
	return iri
}
