// SPDX-License-Identifier: MPL-2.0

package modulefinder

import "github.com/swarmboot/swarmboot/pkg/modules"

// Chain tries finders in order. The first non-nil spec wins and the first
// error aborts the search: a descriptor that exists but cannot be read is
// never masked by a later finder.
type Chain []modules.Finder

// FindModule implements modules.Finder.
func (c Chain) FindModule(id modules.Identifier, delegate modules.DelegateLoader) (*modules.ModuleSpec, error) {
	for _, f := range c {
		spec, err := f.FindModule(id, delegate)
		if err != nil {
			return nil, err
		}
		if spec != nil {
			return spec, nil
		}
	}
	return nil, nil
}
