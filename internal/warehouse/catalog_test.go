package warehouse

import (
	"errors"
	"testing"
	"time"

	"cloud-cost-advisor/internal/analysis"
)

func TestResolveKnownDatasets(t *testing.T) {
	cases := []struct {
		cloud analysis.Cloud
		rtype analysis.ResourceType
		name  string
	}{
		{analysis.CloudAWS, analysis.TypeEC2, "aws_ec2"},
		{analysis.CloudAWS, analysis.TypeVPC, "aws_vpc"},
		{analysis.CloudAWS, analysis.TypeS3, "aws_s3"},
		{analysis.CloudAzure, analysis.TypeVM, "azure_vm"},
		{analysis.CloudAzure, analysis.TypeStorage, "azure_storage"},
	}
	for _, tc := range cases {
		ds, err := Resolve(tc.cloud, tc.rtype)
		if err != nil {
			t.Fatalf("Resolve(%s, %s): %v", tc.cloud, tc.rtype, err)
		}
		if ds.Name != tc.name {
			t.Fatalf("Resolve(%s, %s) = %q, want %q", tc.cloud, tc.rtype, ds.Name, tc.name)
		}
	}
}

func TestResolveFailsClosed(t *testing.T) {
	if _, err := Resolve(analysis.CloudAWS, analysis.TypeVM); !errors.Is(err, analysis.ErrUnsupportedResourceType) {
		t.Fatalf("vm is not an aws dataset, got %v", err)
	}
	if _, err := Resolve(analysis.CloudGCP, analysis.TypeVM); !errors.Is(err, analysis.ErrUnsupportedResourceType) {
		t.Fatalf("gcp has no datasets yet, got %v", err)
	}
	if _, err := Resolve("oracle", analysis.TypeVM); !errors.Is(err, analysis.ErrUnsupportedResourceType) {
		t.Fatalf("unknown cloud should fail closed, got %v", err)
	}
}

func TestDefaultWindowLookbacks(t *testing.T) {
	now := time.Date(2025, 6, 15, 13, 45, 0, 0, time.UTC)
	cases := []struct {
		cloud analysis.Cloud
		rtype analysis.ResourceType
		days  int
	}{
		{analysis.CloudAWS, analysis.TypeEC2, 7},
		{analysis.CloudAzure, analysis.TypeVM, 30},
		{analysis.CloudAzure, analysis.TypeStorage, 90},
	}
	for _, tc := range cases {
		ds, err := Resolve(tc.cloud, tc.rtype)
		if err != nil {
			t.Fatalf("Resolve(%s, %s): %v", tc.cloud, tc.rtype, err)
		}
		w := ds.DefaultWindow(now)
		if w.DurationDays != tc.days {
			t.Fatalf("%s default window = %d days, want %d", ds.Name, w.DurationDays, tc.days)
		}
		if !w.End.Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("window should end at the start of today, got %s", w.End)
		}
	}
}
