/*
Package contracts reads compiled FeeLedger contract.

Compiled contract is a directory with contract.nef and manifest.json files,
as produced by

	neo-go contract compile -i contracts/feeledger -c contracts/feeledger/config.yml \
		-o contracts/feeledger/contract.nef -m contracts/feeledger/manifest.json
*/
package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/nspcc-dev/neo-go/pkg/io"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
)

const (
	// FeeLedgerName is the manifest name of FeeLedger contract.
	FeeLedgerName = "FeeLedger"

	nefName      = "contract.nef"
	manifestName = "manifest.json"
)

// Contract groups information about compiled Neo contract.
type Contract struct {
	NEF      nef.File
	Manifest manifest.Manifest
}

var (
	errInvalidNEF      = errors.New("invalid NEF")
	errInvalidManifest = errors.New("invalid manifest")
	errUnexpectedName  = errors.New("unexpected contract name")
)

// ReadFeeLedger reads compiled FeeLedger contract from the root of fsys and
// checks that it is FeeLedger indeed.
func ReadFeeLedger(fsys fs.FS) (Contract, error) {
	c, err := readContractFromDir(fsys, ".")
	if err != nil {
		return c, err
	}

	if c.Manifest.Name != FeeLedgerName {
		return c, fmt.Errorf("%w: %q", errUnexpectedName, c.Manifest.Name)
	}

	return c, nil
}

func readContractFromDir(fsys fs.FS, dir string) (Contract, error) {
	var c Contract

	fNEF, err := fsys.Open(path.Join(dir, nefName))
	if err != nil {
		return c, fmt.Errorf("open NEF: %w", err)
	}
	defer fNEF.Close()

	fManifest, err := fsys.Open(path.Join(dir, manifestName))
	if err != nil {
		return c, fmt.Errorf("open manifest: %w", err)
	}
	defer fManifest.Close()

	bReader := io.NewBinReaderFromIO(fNEF)
	c.NEF.DecodeBinary(bReader)
	if bReader.Err != nil {
		return c, fmt.Errorf("%w: %w", errInvalidNEF, bReader.Err)
	}

	err = json.NewDecoder(fManifest).Decode(&c.Manifest)
	if err != nil {
		return c, fmt.Errorf("%w: %w", errInvalidManifest, err)
	}

	return c, nil
}
