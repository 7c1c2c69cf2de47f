// Package kubevalidate checks and derives the object names kubescope sends to
// the API server.
package kubevalidate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/rand"
	"k8s.io/apimachinery/pkg/util/validation"
)

// nameMaxLength is the longest generated name. Pods and deployments accept
// longer subdomain names, but their names end up in labels and hostnames.
const nameMaxLength = 63

// kubernetesSlugLength matches the suffix length of metadata.generateName.
// https://github.com/kubernetes/apiserver/blob/master/pkg/storage/names/generate.go#L45-L53
const kubernetesSlugLength = 5

var ErrInvalidName = errors.New("invalid name")

var (
	badPrefix         = regexp.MustCompile(`^[^[:alnum:]]+`)
	badSuffix         = regexp.MustCompile(`[^[:alnum:]]+$`)
	nilSeparator      = regexp.MustCompile(`[']+`)
	badSeparator      = regexp.MustCompile(`([[:alnum:]])[^[:alnum:]._-]+([[:alnum:]])`)
	repeatedSeparator = regexp.MustCompile(`([._-])[._-]*`)
	badCharacters     = regexp.MustCompile(`[^[:alnum:]._-]+`)

	nonAlphabeticPrefix = regexp.MustCompile(`^[^[:alpha:]]+`)
)

// ObjectNameErrors returns the reasons name can't be used as metadata.name of a
// namespaced object. Empty means valid.
func ObjectNameErrors(name string) []string {
	return validation.IsDNS1123Subdomain(name)
}

// NamespaceErrors returns the reasons ns can't be used as a namespace name.
func NamespaceErrors(ns string) []string {
	return validation.IsDNS1123Label(ns)
}

// ContainerNameErrors returns the reasons name can't be used as a container name.
func ContainerNameErrors(name string) []string {
	return validation.IsDNS1123Label(name)
}

// ToIdentifier strips s down to ASCII alphanumerics joined by single '-', '_'
// or '.' separators, with no separator at either end.
func ToIdentifier(s string) string {
	s = badPrefix.ReplaceAllString(s, "")
	s = badSuffix.ReplaceAllString(s, "")

	// "daniel's" becomes "daniels" rather than "daniel-s"
	s = nilSeparator.ReplaceAllString(s, "")
	s = badSeparator.ReplaceAllString(s, "$1-$2")
	s = badCharacters.ReplaceAllString(s, "")
	s = repeatedSeparator.ReplaceAllString(s, "$1")
	return s
}

// ToValidName converts s into a DNS-1035 label: lowercase alphanumerics and
// '-', starting with a letter, at most 63 characters.
func ToValidName(s string) (string, error) {
	if len(validation.IsDNS1035Label(s)) == 0 {
		return s, nil
	}
	s = strings.ToLower(ToIdentifier(s))
	s = strings.NewReplacer("_", "-", ".", "-").Replace(s)
	s = nonAlphabeticPrefix.ReplaceAllString(s, "")

	if len(s) == 0 {
		return "", ErrInvalidName
	}
	if len(s) > nameMaxLength {
		s = ToIdentifier(s[:nameMaxLength])
	}
	return s, nil
}

// ToValidNameWithSlug appends a random slug to prefix, the way the API server
// expands metadata.generateName, and returns a valid name.
func ToValidNameWithSlug(prefix string) (string, error) {
	return toValidNameWithSlug(prefix, KubeSlug)
}

func toValidNameWithSlug(prefix string, slugFn func() string) (string, error) {
	// minus 1 for the '-' before the slug
	const prefixMax = nameMaxLength - kubernetesSlugLength - 1
	if len(prefix) > prefixMax {
		prefix = prefix[:prefixMax]
	}

	name, err := ToValidName(fmt.Sprintf("%s-%s", prefix, slugFn()))
	if err != nil {
		return "", errors.WithStack(err)
	}
	return name, nil
}

// KubeSlug returns a random slug of the length used by generateName.
func KubeSlug() string {
	return rand.String(kubernetesSlugLength)
}
