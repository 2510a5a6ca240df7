// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

// Package config describes the run-time library the weaver generates calls
// into: the names of the marker declarations it looks for and of the methods
// the injected code invokes.
package config

type (
	// Profile is the complete set of names used by the weaver.
	Profile struct {
		// Field is the boolean marker field forced to true.
		Field Field `yaml:"field"`
		// Methods names the four marker methods.
		Methods Methods `yaml:"methods"`
		// Providers controls the naming and filtering of service providers.
		Providers Providers `yaml:"providers"`
		// Registry is the globally reachable interceptor registry used by the
		// interceptor marker method.
		Registry Registry `yaml:"registry"`
		// FlowTask, Autowired and Route are the static hooks invoked from the
		// corresponding marker methods.
		FlowTask  Call `yaml:"flow-task"`
		Autowired Call `yaml:"autowired"`
		Route     Call `yaml:"route"`
		// RouteSuffix is stripped from the end of route class names.
		RouteSuffix string `yaml:"route-suffix"`
		// Report is invoked with the caught throwable when a hook fails.
		Report Report `yaml:"report"`
	}

	Field struct {
		Name       string `yaml:"name"`
		Descriptor string `yaml:"descriptor"`
	}

	Methods struct {
		Interceptors string `yaml:"interceptors"`
		FlowTasks    string `yaml:"flow-tasks"`
		Autowired    string `yaml:"autowired"`
		Routes       string `yaml:"routes"`
	}

	Providers struct {
		// Prefix is the package every provider class lives in; names missing it
		// are prefixed.
		Prefix string `yaml:"prefix"`
		// Sentinel is the version meaning "no compiled artifact".
		Sentinel string `yaml:"sentinel"`
	}

	Registry struct {
		// Owner, Accessor and AccessorDescriptor designate the static method
		// returning the registry.
		Owner              string `yaml:"owner"`
		Accessor           string `yaml:"accessor"`
		AccessorDescriptor string `yaml:"accessor-descriptor"`
		// Type, Register and RegisterDescriptor designate the virtual method
		// registering one interceptor instance.
		Type               string `yaml:"type"`
		Register           string `yaml:"register"`
		RegisterDescriptor string `yaml:"register-descriptor"`
	}

	// Call is a static method expected on every hook class.
	Call struct {
		Name       string `yaml:"name"`
		Descriptor string `yaml:"descriptor"`
	}

	// Report designates the failure reporter. When Static is false, Name and
	// Descriptor designate a virtual method invoked on the throwable itself;
	// otherwise a static method of Owner receiving the throwable.
	Report struct {
		Owner      string `yaml:"owner"`
		Name       string `yaml:"name"`
		Descriptor string `yaml:"descriptor"`
		Static     bool   `yaml:"static"`
	}
)

// Throwable is the internal name of the root of all exceptions; every guarded
// region catches it.
const Throwable = "java/lang/Throwable"

// Default returns the profile of TheRouter's run-time library.
func Default() Profile {
	return Profile{
		Field: Field{Name: "asm", Descriptor: "Z"},
		Methods: Methods{
			Interceptors: "trojan",
			FlowTasks:    "addFlowTask",
			Autowired:    "autowiredInject",
			Routes:       "initDefaultRouteMap",
		},
		Providers: Providers{Prefix: "a/", Sentinel: "0.0.0"},
		Registry: Registry{
			Owner:              "com/therouter/TheRouter",
			Accessor:           "getRouterInject",
			AccessorDescriptor: "()Lcom/therouter/inject/RouterInject;",
			Type:               "com/therouter/inject/RouterInject",
			Register:           "privateAddInterceptor",
			RegisterDescriptor: "(Lcom/therouter/inject/Interceptor;)V",
		},
		FlowTask:    Call{Name: "addFlowTask", Descriptor: "(Landroid/content/Context;Lcom/therouter/flow/Digraph;)V"},
		Autowired:   Call{Name: "autowiredInject", Descriptor: "(Ljava/lang/Object;)V"},
		Route:       Call{Name: "addRoute", Descriptor: "()V"},
		RouteSuffix: ".class",
		Report:      Report{Owner: Throwable, Name: "printStackTrace", Descriptor: "()V"},
	}
}
