// Package domain contains the shared vocabulary of the OmniPath client:
// options, enumerations understood by the web service and the error taxonomy.
package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Organism represents an organism supported by the web service, identified by its NCBI taxonomy code
type Organism int

const (
	HUMAN Organism = 9606
	MOUSE Organism = 10090
	RAT   Organism = 10116
)

var organismNames = map[Organism]string{
	HUMAN: "human",
	MOUSE: "mouse",
	RAT:   "rat",
}

// Code returns the NCBI taxonomy code as sent to the server
func (o Organism) Code() string { return strconv.Itoa(int(o)) }

// String returns the taxonomy code so organisms serialize as their wire value
func (o Organism) String() string { return o.Code() }

// Name returns the common name of the organism
func (o Organism) Name() string { return organismNames[o] }

// ParseOrganism accepts a common name ("human"), a code ("9606") or an integer code
func ParseOrganism(v interface{}) (Organism, error) {
	switch val := v.(type) {
	case Organism:
		if _, ok := organismNames[val]; ok {
			return val, nil
		}
	case int:
		return ParseOrganism(Organism(val))
	case int64:
		return ParseOrganism(Organism(val))
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		for org, name := range organismNames {
			if s == name || s == org.Code() {
				return org, nil
			}
		}
	}
	return 0, fmt.Errorf("invalid organism %v, valid options are: human (9606), mouse (10090), rat (10116)", v)
}

// License represents the license under which data is requested
type License string

const (
	LicenseAcademic   License = "academic"
	LicenseCommercial License = "commercial"
	LicenseNonProfit  License = "non_profit"
	LicenseForProfit  License = "for_profit"
	LicenseIgnore     License = "ignore"
)

// String returns the wire value
func (l License) String() string { return string(l) }

// ParseLicense validates a license string
func ParseLicense(s string) (License, error) {
	l := License(strings.ToLower(strings.TrimSpace(s)))
	switch l {
	case LicenseAcademic, LicenseCommercial, LicenseNonProfit, LicenseForProfit, LicenseIgnore:
		return l, nil
	}
	return "", fmt.Errorf("invalid license %q, valid options are: academic, commercial, for_profit, ignore, non_profit", s)
}

// Format represents a response format
type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "tab"
	FormatText  Format = "text"
	FormatTSV   Format = "tsv"
)

// String returns the wire value
func (f Format) String() string { return string(f) }

// InteractionDataset represents one of the interaction datasets of the web service
type InteractionDataset string

const (
	DatasetDorothea     InteractionDataset = "dorothea"
	DatasetKinaseExtra  InteractionDataset = "kinaseextra"
	DatasetLigRecExtra  InteractionDataset = "ligrecextra"
	DatasetLncRNAmRNA   InteractionDataset = "lncrna_mrna"
	DatasetMiRNATarget  InteractionDataset = "mirnatarget"
	DatasetOmniPath     InteractionDataset = "omnipath"
	DatasetPathwayExtra InteractionDataset = "pathwayextra"
	DatasetTFmiRNA      InteractionDataset = "tf_mirna"
	DatasetTFRegulons   InteractionDataset = "tfregulons"
	DatasetTFTarget     InteractionDataset = "tf_target"
	DatasetCollecTRI    InteractionDataset = "collectri"
)

// String returns the wire value
func (d InteractionDataset) String() string { return string(d) }

// AllInteractionDatasets returns every known dataset, sorted
func AllInteractionDatasets() []InteractionDataset {
	all := []InteractionDataset{
		DatasetDorothea, DatasetKinaseExtra, DatasetLigRecExtra, DatasetLncRNAmRNA,
		DatasetMiRNATarget, DatasetOmniPath, DatasetPathwayExtra, DatasetTFmiRNA,
		DatasetTFRegulons, DatasetTFTarget, DatasetCollecTRI,
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all
}

// ParseInteractionDataset validates a dataset name
func ParseInteractionDataset(s string) (InteractionDataset, error) {
	d := InteractionDataset(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllInteractionDatasets() {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("invalid interaction dataset %q", s)
}
