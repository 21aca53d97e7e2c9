package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	digest "github.com/opencontainers/go-digest"

	"github.com/alexisbeaulieu97/cupsy/internal/cups"
	"github.com/alexisbeaulieu97/cupsy/internal/model"
	"github.com/alexisbeaulieu97/cupsy/pkg/diff"
	cupserrors "github.com/alexisbeaulieu97/cupsy/pkg/errors"
)

// Decision is the outcome of comparing the desired and installed driver.
type Decision struct {
	Rebuild bool
	// Reason explains a rebuild. For content changes it carries a diff of the
	// two driver descriptions.
	Reason string
}

type driverContent struct {
	digest digest.Digest
	data   []byte
}

// NeedsRebuild decides whether a printer must be deleted and recreated so its
// driver matches desired. Classes and desired states without a driver never
// need a rebuild. Every driver file fetched for hashing is removed before
// NeedsRebuild returns.
func NeedsRebuild(ctx context.Context, client cups.Client, desired *model.DesiredState, live *model.LiveState) (Decision, error) {
	if desired.Kind != model.KindPrinter || desired.Driver == nil {
		return Decision{}, nil
	}
	wantRaw := desired.Driver.Kind == model.DriverRaw

	if live.Raw != wantRaw {
		return Decision{
			Rebuild: true,
			Reason:  fmt.Sprintf("driver changed from %s to %s", liveDriverLabel(live), desired.Driver),
		}, nil
	}
	if wantRaw {
		return Decision{}, nil
	}

	installed, err := fetchDriver(func() (string, error) { return client.FetchDriverFile(ctx, live.Name) })
	if err != nil {
		return Decision{}, err
	}

	var wanted driverContent
	switch desired.Driver.Kind {
	case model.DriverLocalFile:
		wanted, err = readDriver(desired.Driver.Reference)
	case model.DriverCatalog:
		wanted, err = fetchDriver(func() (string, error) {
			return client.FetchCatalogDriverFile(ctx, desired.Driver.Reference)
		})
	default:
		err = cupserrors.NewValidationError("driver.type", fmt.Sprintf("unsupported driver type %q", desired.Driver.Kind), nil)
	}
	if err != nil {
		return Decision{}, err
	}

	if installed.digest == wanted.digest {
		return Decision{}, nil
	}
	reason := fmt.Sprintf("driver content changed from %s to %s (%s)", installed.digest, wanted.digest, desired.Driver)
	if d := diff.Unified(installed.data, wanted.data, "installed", desired.Driver.String()); d != "" {
		reason += "\n" + d
	}
	return Decision{Rebuild: true, Reason: reason}, nil
}

func liveDriverLabel(live *model.LiveState) string {
	if live.Raw {
		return string(model.DriverRaw)
	}
	if live.MakeAndModel != "" {
		return live.MakeAndModel
	}
	return "driver"
}

// fetchDriver hashes the temporary file produced by fetch and removes it on
// every path out, including a failed read.
func fetchDriver(fetch func() (string, error)) (content driverContent, err error) {
	path, err := fetch()
	if err != nil {
		return driverContent{}, err
	}
	defer func() {
		rmErr := os.Remove(path)
		if rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) && err == nil {
			content = driverContent{}
			err = cupserrors.NewResourceError("remove driver file", path, rmErr)
		}
	}()
	return readDriver(path)
}

func readDriver(path string) (driverContent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return driverContent{}, cupserrors.NewResourceError("read driver file", path, err)
	}
	return driverContent{digest: digest.FromBytes(data), data: data}, nil
}
