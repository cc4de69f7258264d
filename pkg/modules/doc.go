// SPDX-License-Identifier: MPL-2.0

// Package modules defines the module model shared by every bootstrap component.
//
// A module is a named unit of classes and resources with declared dependencies.
// It is identified by an [Identifier] (name and slot) and described by a
// [ModuleSpec], which is produced by a [Finder] and consumed by a
// [DelegateLoader] that builds the live module graph.
//
// # Descriptor layout
//
// Module descriptors live at a fixed path derived from the identifier:
//
//	modules/<name with '.' replaced by '/'>/<slot>/module.xml
//
// For example, "org.example.foo:main" maps to
// "modules/org/example/foo/main/module.xml". See [Identifier.DescriptorPath].
//
// # Error model
//
// A finder that does not own an identifier returns a nil spec and a nil error.
// Every other failure surfaces as a [*LoadError], which wraps the underlying
// cause and matches [ErrModuleLoad] with errors.Is.
package modules
