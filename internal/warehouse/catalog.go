package warehouse

import (
	"fmt"
	"time"

	"cloud-cost-advisor/internal/analysis"
)

// Dataset describes one logical utilization dataset in the warehouse: which
// table holds the cost-joined rows for a (cloud, resource type) pair and how
// far back an analysis looks by default.
type Dataset struct {
	Cloud    analysis.Cloud
	Type     analysis.ResourceType
	Name     string
	Table    string
	Lookback time.Duration
}

const day = 24 * time.Hour

// catalog maps every supported (cloud, resource type) pair to its dataset.
// gcp is a recognised cloud with no datasets yet, so every gcp request
// resolves to ErrUnsupportedResourceType until one lands here.
var catalog = map[analysis.Cloud]map[analysis.ResourceType]Dataset{
	analysis.CloudAWS: {
		analysis.TypeEC2: {
			Cloud: analysis.CloudAWS, Type: analysis.TypeEC2,
			Name: "aws_ec2", Table: "ec2_utilization_costs", Lookback: 7 * day,
		},
		analysis.TypeVPC: {
			Cloud: analysis.CloudAWS, Type: analysis.TypeVPC,
			Name: "aws_vpc", Table: "vpc_utilization_costs", Lookback: 7 * day,
		},
		analysis.TypeS3: {
			Cloud: analysis.CloudAWS, Type: analysis.TypeS3,
			Name: "aws_s3", Table: "s3_utilization_costs", Lookback: 7 * day,
		},
	},
	analysis.CloudAzure: {
		analysis.TypeVM: {
			Cloud: analysis.CloudAzure, Type: analysis.TypeVM,
			Name: "azure_vm", Table: "vm_utilization_costs", Lookback: 30 * day,
		},
		analysis.TypeStorage: {
			Cloud: analysis.CloudAzure, Type: analysis.TypeStorage,
			Name: "azure_storage", Table: "storage_utilization_costs", Lookback: 90 * day,
		},
	},
}

// Resolve looks up the dataset for a canonical (cloud, resource type) pair.
// Unknown pairs fail closed with ErrUnsupportedResourceType before anything
// is fetched; this is the hard gate in front of the fail-open id guard.
func Resolve(cloud analysis.Cloud, resourceType analysis.ResourceType) (Dataset, error) {
	types, ok := catalog[cloud]
	if !ok {
		return Dataset{}, fmt.Errorf("%w: cloud %q", analysis.ErrUnsupportedResourceType, cloud)
	}
	ds, ok := types[resourceType]
	if !ok {
		return Dataset{}, fmt.Errorf("%w: %q on %s", analysis.ErrUnsupportedResourceType, resourceType, cloud)
	}
	return ds, nil
}

// DefaultWindow builds the analysis window used when a request carries no
// explicit dates: the dataset's lookback ending now.
func (d Dataset) DefaultWindow(now time.Time) analysis.Window {
	end := now.UTC().Truncate(day)
	return analysis.NewWindow(end.Add(-d.Lookback), end)
}
