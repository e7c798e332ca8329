// Copyright 2024-2025 vecdb
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"fmt"
	"sync"

	"github.com/tidwall/btree"
)

func tableOidLess(a, b *DataTable) bool {
	return a._oid < b._oid
}

func tableNameLess(a, b *DataTable) bool {
	if a._schema != b._schema {
		return a._schema < b._schema
	}
	return a._name < b._name
}

type Catalog struct {
	_lock    sync.Mutex
	_nextOid IdxType
	_byOid   *btree.BTreeG[*DataTable]
	_byName  *btree.BTreeG[*DataTable]
}

func NewCatalog() *Catalog {
	return &Catalog{
		_nextOid: 1,
		_byOid:   btree.NewBTreeG[*DataTable](tableOidLess),
		_byName:  btree.NewBTreeG[*DataTable](tableNameLess),
	}
}

func (cat *Catalog) CreateTable(
	schema, name string,
	colDefs []*ColumnDefinition) (*DataTable, error) {
	cat._lock.Lock()
	defer cat._lock.Unlock()
	probe := &DataTable{_schema: schema, _name: name}
	if _, has := cat._byName.Get(probe); has {
		return nil, fmt.Errorf("table %s.%s already exists", schema, name)
	}
	oid := cat._nextOid
	cat._nextOid++
	table := NewDataTable(oid, schema, name, colDefs)
	cat._byOid.Set(table)
	cat._byName.Set(table)
	return table, nil
}

// GetTable resolves a table handle by oid. Resolution failures are
// returned errors, never panics.
func (cat *Catalog) GetTable(oid IdxType) (*DataTable, error) {
	cat._lock.Lock()
	defer cat._lock.Unlock()
	probe := &DataTable{_oid: oid}
	if table, has := cat._byOid.Get(probe); has {
		return table, nil
	}
	return nil, fmt.Errorf("no table with oid %d", oid)
}

func (cat *Catalog) GetTableByName(schema, name string) (*DataTable, error) {
	cat._lock.Lock()
	defer cat._lock.Unlock()
	probe := &DataTable{_schema: schema, _name: name}
	if table, has := cat._byName.Get(probe); has {
		return table, nil
	}
	return nil, fmt.Errorf("no table %s.%s", schema, name)
}
