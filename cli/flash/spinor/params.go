//
// Copyright (c) 2024-2026 BPIO Tools Contributors
// All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
package spinor

import (
	"fmt"
	"io/ioutil"

	"github.com/golang/glog"
	"github.com/juju/errors"
	yaml "gopkg.in/yaml.v2"
)

// ChipID is the 3-byte JEDEC identification returned by command 0x9F.
type ChipID struct {
	Manufacturer byte
	MemoryType   byte
	CapacityCode byte
}

func (id ChipID) String() string {
	return fmt.Sprintf("%02x%02x%02x", id.Manufacturer, id.MemoryType, id.CapacityCode)
}

// Size derives the capacity from the JEDEC capacity code, which for the
// vast majority of parts is the power-of-two exponent. Returns 0 when the
// code is out of the plausible 512 Kbit..4 Gbit range.
func (id ChipID) Size() int64 {
	if id.CapacityCode < 19 || id.CapacityCode > 32 {
		return 0
	}
	return 1 << uint(id.CapacityCode)
}

// DetectChip configures t and reads the JEDEC ID. An all-zeroes or
// all-ones response means no chip answered (floating or grounded MISO).
func DetectChip(t Transport, cfg ConfigOptions) (ChipID, error) {
	var id ChipID
	if err := t.Configure(cfg); err != nil {
		return id, errors.Annotatef(ErrConfigurationFailed, "%v", err)
	}
	data, err := t.Transfer(readJEDECIDCmd(), 3)
	if err != nil {
		return id, errors.Annotatef(&TransportError{Addr: 0}, "%v", err)
	}
	if len(data) != 3 {
		return id, errors.Annotatef(&TransportError{Addr: 0},
			"short response: got %d bytes, want 3", len(data))
	}
	if (data[0] == 0 && data[1] == 0 && data[2] == 0) ||
		(data[0] == 0xff && data[1] == 0xff && data[2] == 0xff) {
		return id, errors.Errorf("no flash chip detected (JEDEC ID %02x%02x%02x)",
			data[0], data[1], data[2])
	}
	id = ChipID{Manufacturer: data[0], MemoryType: data[1], CapacityCode: data[2]}
	glog.V(1).Infof("JEDEC ID: %s, capacity %d", id, id.Size())
	return id, nil
}

// ChipInfo describes one known flash part.
type ChipInfo struct {
	Name     string `yaml:"name"`
	ID       string `yaml:"id"` // 3 bytes, lowercase hex, e.g. "ef4017"
	Size     int64  `yaml:"size"`
	PageSize int    `yaml:"page_size"`
}

var builtinChips = []ChipInfo{
	{Name: "W25Q32JV", ID: "ef4016", Size: 4 << 20, PageSize: 256},
	{Name: "W25Q64JV", ID: "ef4017", Size: 8 << 20, PageSize: 256},
	{Name: "W25Q128JV", ID: "ef4018", Size: 16 << 20, PageSize: 256},
	{Name: "MX25L3233F", ID: "c22016", Size: 4 << 20, PageSize: 256},
	{Name: "MX25L6433F", ID: "c22017", Size: 8 << 20, PageSize: 256},
	{Name: "MX25L12833F", ID: "c22018", Size: 16 << 20, PageSize: 256},
	{Name: "GD25Q64C", ID: "c84017", Size: 8 << 20, PageSize: 256},
	{Name: "N25Q032A", ID: "20ba16", Size: 4 << 20, PageSize: 256},
	{Name: "AT25SF081", ID: "1f8501", Size: 1 << 20, PageSize: 256},
	{Name: "S25FL128L", ID: "016018", Size: 16 << 20, PageSize: 256},
}

// ChipDB maps JEDEC IDs to chip parameters. It starts with a built-in
// table of common parts; LoadFile merges user-supplied entries on top.
type ChipDB struct {
	chips map[string]ChipInfo
}

func NewChipDB() *ChipDB {
	db := &ChipDB{chips: map[string]ChipInfo{}}
	for _, c := range builtinChips {
		db.chips[c.ID] = c
	}
	return db
}

// LoadFile merges chip definitions from a YAML file: a list of
// {name, id, size, page_size} entries. Entries with an ID already present
// override the built-in table.
func (db *ChipDB) LoadFile(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.Trace(err)
	}
	var chips []ChipInfo
	if err := yaml.Unmarshal(data, &chips); err != nil {
		return errors.Annotatef(err, "failed to parse chip db %s", path)
	}
	for _, c := range chips {
		if len(c.ID) != 6 {
			return errors.Errorf("%s: invalid chip id %q, want 3 hex bytes", path, c.ID)
		}
		db.chips[c.ID] = c
	}
	glog.V(1).Infof("loaded %d chip definitions from %s", len(chips), path)
	return nil
}

// Lookup returns the parameters for id, or nil for an unknown part.
func (db *ChipDB) Lookup(id ChipID) *ChipInfo {
	if c, ok := db.chips[id.String()]; ok {
		return &c
	}
	return nil
}
