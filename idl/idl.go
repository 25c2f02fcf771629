// Package idl wraps the varlink interface description parser for the
// commands that introspect a service.
package idl

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	varlinkidl "github.com/varlink/go/varlink/idl"
)

var ErrDescriptionIsEmpty = errors.New("interface description is an empty string")

// Interface is a parsed interface description.
type Interface struct {
	Name        string
	Doc         string
	Description string
	// Members holds the declarations in the order they appear, each one a
	// *varlinkidl.Alias, *varlinkidl.Method or *varlinkidl.Error.
	Members []interface{}
	// Methods holds the sorted method names.
	Methods []string
}

// Parse parses an interface description as returned by
// org.varlink.service.GetInterfaceDescription.
func Parse(description string) (*Interface, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrDescriptionIsEmpty
	}
	parsed, err := varlinkidl.New(description)
	if err != nil {
		return nil, errors.Wrap(err, "idl: failed to parse interface description")
	}

	iface := &Interface{
		Name:        parsed.Name,
		Doc:         parsed.Doc,
		Description: description,
		Members:     parsed.Members,
		Methods:     make([]string, 0, len(parsed.Methods)),
	}
	for _, m := range parsed.Methods {
		iface.Methods = append(iface.Methods, m.Name)
	}
	sort.Strings(iface.Methods)
	return iface, nil
}
