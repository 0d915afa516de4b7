// Package conversion implements the registry of user conversions between
// descriptor types.
//
// Conversions are registered per direction and indexed by the origin of
// the side matched against requests. Resolution unifies each candidate
// with the requested type, so a conversion declared over GlobalId<T>
// serves GlobalId<Faction> with T bound to Faction:
//
//	reg := conversion.NewRegistry()
//	reg.Register(descriptor.Deserialization, &descriptor.Conversion{
//		Source:    descriptor.String,
//		Target:    descriptor.Generic(globalID, descriptor.Var("T")),
//		Converter: conversion.Pure(parseID),
//	})
//	convs, err := reg.Resolve(descriptor.Deserialization, descriptor.Generic(globalID, faction))
//
// Every mutation bumps the registry version and notifies subscribed
// observers so compiled methods depending on the old state can be dropped.
package conversion
