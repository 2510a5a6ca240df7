// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2023-present Datadog, Inc.

package weave_test

import (
	"bytes"
	"testing"

	"github.com/DataDog/weaver/internal/bytecode"
	"github.com/DataDog/weaver/internal/classfile"
	"github.com/DataDog/weaver/internal/config"
	"github.com/DataDog/weaver/internal/weave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	getRouterInject = "com/therouter/TheRouter.getRouterInject"
	addInterceptor  = "com/therouter/inject/RouterInject.privateAddInterceptor"
	printStackTrace = "java/lang/Throwable.printStackTrace"
)

func transform(t *testing.T, c *classfile.Class, hooks weave.Hooks, opts ...weave.Option) (*classfile.Class, weave.Result) {
	t.Helper()
	out, res, err := weave.New(hooks, opts...).Transform(c)
	require.NoError(t, err)
	require.NotNil(t, out)
	return out, res
}

func method(t *testing.T, res weave.Result, name string) weave.MethodResult {
	t.Helper()
	for _, m := range res.Methods {
		if m.Name == name {
			return m
		}
	}
	require.Failf(t, "method not rewritten", "%s", name)
	return weave.MethodResult{}
}

func TestWorkedExample(t *testing.T) {
	hooks := weave.NewHooks(map[string]string{"a/X": "1.2.0", "a/Y": "0.0.0"}, nil, nil)
	out, res := transform(t, routerClass(t, 52), hooks)

	unit := []bytecode.Opcode{
		bytecode.Invokestatic, bytecode.New, bytecode.Dup, bytecode.Invokespecial, bytecode.Invokevirtual,
		bytecode.Goto, bytecode.Astore0, bytecode.Aload0, bytecode.Invokevirtual,
	}
	expected := append(append(append([]bytecode.Opcode(nil), unit...), unit...), bytecode.Return)
	assert.Equal(t, expected, ops(t, out, "trojan"))
	assert.Equal(t, []string{
		getRouterInject, "a/X.<init>", addInterceptor, printStackTrace,
		getRouterInject, "a/Y.<init>", addInterceptor, printStackTrace,
	}, calls(t, out, "trojan"))
	assert.Equal(t, []string{"a/X", "a/Y"}, method(t, res, "trojan").Injected)

	assert.Equal(t, []bytecode.Opcode{
		bytecode.Aload0, bytecode.Aload1, bytecode.Invokestatic,
		bytecode.Goto, bytecode.Astore2, bytecode.Aload2, bytecode.Invokevirtual,
		bytecode.Return,
	}, ops(t, out, "addFlowTask"))
	assert.Equal(t, []string{"a/X.addFlowTask", printStackTrace}, calls(t, out, "addFlowTask"))
	flow := method(t, res, "addFlowTask")
	assert.Equal(t, []string{"a/X"}, flow.Injected)
	assert.Equal(t, []string{"a/Y"}, flow.Skipped)

	// Empty hook lists still truncate the marker methods.
	assert.Equal(t, []bytecode.Opcode{bytecode.Return}, ops(t, out, "autowiredInject"))
	assert.Equal(t, []bytecode.Opcode{bytecode.Return}, ops(t, out, "initDefaultRouteMap"))
}

func TestOrdering(t *testing.T) {
	hooks := weave.NewHooks(
		nil,
		[]string{"com.b.B", "com.a.A", "com.b.B", "com/c/C"},
		[]string{"com.example.RouterMap__z.class", "com.example.RouterMap__a.class", "com.example.RouterMap__a.class", "x.classy.Y"},
	)
	out, res := transform(t, routerClass(t, 52), hooks)

	assert.Equal(t, []string{
		"com/a/A.autowiredInject", printStackTrace,
		"com/b/B.autowiredInject", printStackTrace,
		"com/c/C.autowiredInject", printStackTrace,
	}, calls(t, out, "autowiredInject"))
	assert.Equal(t, []string{"com/a/A", "com/b/B", "com/c/C"}, method(t, res, "autowiredInject").Injected)

	assert.Equal(t, []string{
		"com/example/RouterMap__a", "com/example/RouterMap__z", "x/classy/Y",
	}, method(t, res, "initDefaultRouteMap").Injected)
	assert.Equal(t, []string{
		"com/example/RouterMap__a.addRoute", printStackTrace,
		"com/example/RouterMap__z.addRoute", printStackTrace,
		"x/classy/Y.addRoute", printStackTrace,
	}, calls(t, out, "initDefaultRouteMap"))
}

func TestProviderNames(t *testing.T) {
	hooks := weave.NewHooks(map[string]string{"X": "1.0.0", "a/Y": "2.0.0", "Z": "0.0.0", "W": ""}, nil, nil)
	_, res := transform(t, routerClass(t, 52), hooks)

	// Providers are ordered by the name discovery recorded, then prefixed.
	assert.Equal(t, []string{"a/W", "a/X", "a/Z", "a/Y"}, method(t, res, "trojan").Injected)

	flow := method(t, res, "addFlowTask")
	assert.Equal(t, []string{"a/W", "a/X", "a/Y"}, flow.Injected, "versions are found under either name")
	assert.Equal(t, []string{"a/Z"}, flow.Skipped)

	// A key discovered both with and without the prefix names one class twice,
	// and each name gets its own unit.
	hooks = weave.NewHooks(map[string]string{"X": "1.0.0", "a/X": "2.0.0"}, nil, nil)
	_, res = transform(t, routerClass(t, 52), hooks)
	assert.Equal(t, []string{"a/X", "a/X"}, method(t, res, "trojan").Injected)
	assert.Equal(t, []string{"a/X", "a/X"}, method(t, res, "addFlowTask").Injected)
	assert.Empty(t, method(t, res, "addFlowTask").Skipped)
}

func TestDeterminism(t *testing.T) {
	first := weave.NewHooks(
		map[string]string{"a/B": "1.0.0", "a/A": "1.0.0", "C": "1.0.0"},
		[]string{"z.Z", "a.A", "m.M"},
		[]string{"r.R2.class", "r.R1.class"},
	)
	second := weave.NewHooks(
		map[string]string{"C": "1.0.0", "a/A": "1.0.0", "a/B": "1.0.0"},
		[]string{"m.M", "z.Z", "a.A", "m.M"},
		[]string{"r.R1.class", "r.R2.class", "r.R1.class"},
	)

	for _, mode := range []weave.Mode{weave.Full, weave.Incremental} {
		t.Run(mode.String(), func(t *testing.T) {
			a, _ := transform(t, routerClass(t, 52), first, weave.WithMode(mode))
			b, _ := transform(t, routerClass(t, 52), second, weave.WithMode(mode))
			assert.Equal(t, classBytes(t, a), classBytes(t, b))
		})
	}
}

func TestInputIsNotModified(t *testing.T) {
	in := routerClass(t, 52)
	before := classBytes(t, in)

	hooks := weave.NewHooks(map[string]string{"a/X": "1.0.0"}, []string{"a.B"}, []string{"r.R.class"})
	out, _ := transform(t, in, hooks)

	assert.Equal(t, before, classBytes(t, in))
	assert.NotEqual(t, before, classBytes(t, out))
}

func TestMarkerField(t *testing.T) {
	for name, setup := range map[string]func(t *testing.T, c *classfile.Class){
		"undeclared": func(*testing.T, *classfile.Class) {},
		"false": func(t *testing.T, c *classfile.Class) {
			zero, err := c.Pool.AddInteger(0)
			require.NoError(t, err)
			require.NoError(t, c.SetConstantValue(c.Field("asm"), zero))
		},
		"true": func(t *testing.T, c *classfile.Class) {
			one, err := c.Pool.AddInteger(1)
			require.NoError(t, err)
			require.NoError(t, c.SetConstantValue(c.Field("asm"), one))
		},
	} {
		t.Run(name, func(t *testing.T) {
			in := routerClass(t, 52)
			setup(t, in)

			out, res := transform(t, in, weave.NewHooks(nil, nil, nil))
			assert.True(t, res.FieldPatched)

			index, ok := out.ConstantValue(out.Field("asm"))
			require.True(t, ok)
			v, err := out.Pool.Integer(index)
			require.NoError(t, err)
			assert.EqualValues(t, 1, v)

			assert.Equal(t, in.Field("asm").Access, out.Field("asm").Access)
			_, ok = out.ConstantValue(out.Field("other"))
			assert.False(t, ok, "other fields are untouched")
		})
	}

	t.Run("wrong type", func(t *testing.T) {
		in, err := classfile.New("com/example/Other", "java/lang/Object", 52)
		require.NoError(t, err)
		_, err = in.AddField(classfile.AccStatic, "asm", "I")
		require.NoError(t, err)

		out, res := transform(t, in, weave.NewHooks(nil, nil, nil))
		assert.False(t, res.FieldPatched)
		assert.False(t, res.Changed())
		assert.Equal(t, classBytes(t, in), classBytes(t, out))
	})
}

func TestUnrelatedMethodsAreUntouched(t *testing.T) {
	in := routerClass(t, 52)
	profile := config.Default()
	// Constructors are never marker methods, even when named as one.
	profile.Methods.Routes = classfile.Constructor

	hooks := weave.NewHooks(map[string]string{"a/X": "1.0.0"}, []string{"a.B"}, []string{"r.R.class"})
	out, res := transform(t, in, hooks, weave.WithProfile(profile))

	assert.Equal(t, rawCode(t, in, classfile.Constructor), rawCode(t, out, classfile.Constructor))
	assert.Equal(t, rawCode(t, in, "unrelated"), rawCode(t, out, "unrelated"))
	assert.Equal(t, rawCode(t, in, "initDefaultRouteMap"), rawCode(t, out, "initDefaultRouteMap"))

	var names []string
	for _, m := range res.Methods {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"trojan", "addFlowTask", "autowiredInject"}, names)
}

func TestIncremental(t *testing.T) {
	in := routerClass(t, 52)
	hooks := weave.NewHooks(map[string]string{"a/X": "1.2.0", "a/Y": "0.0.0"}, []string{"a.B"}, nil)
	out, res := transform(t, in, hooks, weave.WithIncremental(true))
	assert.Equal(t, weave.Incremental, res.Mode)

	assert.Equal(t, []string{
		getRouterInject, "a/X.<init>", addInterceptor, printStackTrace,
		getRouterInject, "a/Y.<init>", addInterceptor, printStackTrace,
		"com/example/Tail.trojan",
	}, calls(t, out, "trojan"))

	for _, name := range []string{"trojan", "addFlowTask", "autowiredInject"} {
		before, after := rawCode(t, in, name), rawCode(t, out, name)
		assert.True(t, bytes.HasSuffix(after, before), "%s keeps its original body", name)
		assert.Zero(t, (len(after)-len(before))%4, "%s prefix is aligned", name)
		assert.True(t, method(t, res, name).Rewritten)
	}

	// Nothing to inject: the method is left as-is.
	assert.Equal(t, rawCode(t, in, "initDefaultRouteMap"), rawCode(t, out, "initDefaultRouteMap"))
	assert.False(t, method(t, res, "initDefaultRouteMap").Rewritten)
}

func TestIncrementalKeepsSwitches(t *testing.T) {
	in, err := classfile.New(injecter, "java/lang/Object", 52)
	require.NoError(t, err)
	done, err := in.Pool.AddMethodref("com/example/Tail", "done", "()V")
	require.NoError(t, err)

	one, two, dflt := bytecode.NewLabel(), bytecode.NewLabel(), bytecode.NewLabel()
	_, err = in.AddMethod(classfile.AccPublic|classfile.AccStatic, "initDefaultRouteMap", "()V", &bytecode.Code{
		MaxStack:  1,
		MaxLocals: 0,
		Insns: []bytecode.Insn{
			bytecode.Op(bytecode.Iconst1),
			{Op: bytecode.Tableswitch, Switch: &bytecode.Switch{Default: dflt, Low: 0, High: 1, Targets: []*bytecode.Label{one, two}}},
			bytecode.Mark(one),
			bytecode.Op(bytecode.Nop),
			bytecode.Jump(bytecode.Goto, dflt),
			bytecode.Mark(two),
			bytecode.Ref(bytecode.Invokestatic, done),
			bytecode.Mark(dflt),
			bytecode.Op(bytecode.Return),
		},
		Frames: map[*bytecode.Label]bytecode.Frame{one: {}, two: {}, dflt: {}},
	})
	require.NoError(t, err)

	for _, routes := range [][]string{{"r.A"}, {"r.A", "r.B"}, {"r.A", "r.B", "r.C"}} {
		out, _ := transform(t, in, weave.NewHooks(nil, nil, routes), weave.WithIncremental(true))

		before, after := rawCode(t, in, "initDefaultRouteMap"), rawCode(t, out, "initDefaultRouteMap")
		assert.True(t, bytes.HasSuffix(after, before))
		assert.Zero(t, (len(after)-len(before))%4)

		// The rewritten class is well-formed.
		parsed, err := classfile.Parse(classBytes(t, out))
		require.NoError(t, err)
		code := code(t, parsed, "initDefaultRouteMap")
		assert.Len(t, code.TryCatches, len(routes))
		assert.Len(t, code.Frames, 3+2*len(routes))
	}
}

func TestIncrementalFramedEntry(t *testing.T) {
	in, err := classfile.New(injecter, "java/lang/Object", 52)
	require.NoError(t, err)

	loop := bytecode.NewLabel()
	_, err = in.AddMethod(classfile.AccPublic|classfile.AccStatic, "initDefaultRouteMap", "(I)V", &bytecode.Code{
		MaxStack:  1,
		MaxLocals: 1,
		Insns: []bytecode.Insn{
			bytecode.Mark(loop),
			{Op: bytecode.Iinc, Index: 0, Imm: -1},
			bytecode.Op(bytecode.Iload0),
			bytecode.Jump(bytecode.Ifgt, loop),
			bytecode.Op(bytecode.Return),
		},
		Frames: map[*bytecode.Label]bytecode.Frame{loop: {Locals: []bytecode.VType{bytecode.Integer}}},
	})
	require.NoError(t, err)

	// Each unit is 11 bytes long: four units need no alignment, but the
	// original entry frame must not share an offset with the last unit's.
	out, _ := transform(t, in, weave.NewHooks(nil, nil, []string{"r.A", "r.B", "r.C", "r.D"}), weave.WithIncremental(true))
	before, after := rawCode(t, in, "initDefaultRouteMap"), rawCode(t, out, "initDefaultRouteMap")
	assert.True(t, bytes.HasSuffix(after, before))
	assert.Len(t, after, len(before)+4*11+4)
	assert.Len(t, code(t, out, "initDefaultRouteMap").Frames, 1+2*4)
}

func TestFrames(t *testing.T) {
	hooks := weave.NewHooks(map[string]string{"a/X": "1.0.0", "a/Y": "1.0.0"}, nil, nil)

	out, _ := transform(t, routerClass(t, 52), hooks)
	c := code(t, out, "addFlowTask")
	require.Len(t, c.Frames, 4)
	params := []bytecode.VType{bytecode.Object("android/content/Context"), bytecode.Object("com/therouter/flow/Digraph")}
	var handlers int
	for _, f := range c.Frames {
		assert.Equal(t, params, f.Locals)
		if len(f.Stack) > 0 {
			assert.Equal(t, []bytecode.VType{bytecode.Object("java/lang/Throwable")}, f.Stack)
			handlers++
		}
	}
	assert.Equal(t, 2, handlers)
	assert.EqualValues(t, 2, c.MaxStack)
	assert.EqualValues(t, 3, c.MaxLocals)

	old, _ := transform(t, routerClass(t, 49), hooks)
	assert.Empty(t, code(t, old, "addFlowTask").Frames)
}

func TestForwardingUsesParameterSlots(t *testing.T) {
	in, err := classfile.New(injecter, "java/lang/Object", 52)
	require.NoError(t, err)
	addMethod(t, in, classfile.AccPublic, "autowiredInject", "(Ljava/lang/Object;)V", bytecode.Op(bytecode.Return))
	addMethod(t, in, classfile.AccPublic, "addFlowTask", "(JLjava/lang/Object;)V", bytecode.Op(bytecode.Return))

	out, _ := transform(t, in, weave.NewHooks(map[string]string{"a/X": "1.0.0"}, []string{"a.B"}, nil))

	assert.Equal(t, []bytecode.Opcode{
		bytecode.Aload1, bytecode.Invokestatic, bytecode.Goto, bytecode.Astore2, bytecode.Aload2, bytecode.Invokevirtual, bytecode.Return,
	}, ops(t, out, "autowiredInject"))
	assert.Equal(t, []bytecode.Opcode{
		bytecode.Lload1, bytecode.Aload3, bytecode.Invokestatic, bytecode.Goto, bytecode.Astore, bytecode.Aload, bytecode.Invokevirtual, bytecode.Return,
	}, ops(t, out, "addFlowTask"))
	c := code(t, out, "addFlowTask")
	assert.EqualValues(t, 3, c.MaxStack)
	assert.EqualValues(t, 5, c.MaxLocals)
}

func TestTypedReturn(t *testing.T) {
	in, err := classfile.New(injecter, "java/lang/Object", 52)
	require.NoError(t, err)
	addMethod(t, in, classfile.AccPublic|classfile.AccStatic, "trojan", "()J", bytecode.Op(bytecode.Lconst1), bytecode.Op(bytecode.Lreturn))

	out, _ := transform(t, in, weave.NewHooks(nil, nil, nil))
	assert.Equal(t, []bytecode.Opcode{bytecode.Lconst0, bytecode.Lreturn}, ops(t, out, "trojan"))
	assert.EqualValues(t, 2, code(t, out, "trojan").MaxStack)
}

func TestStaticReporter(t *testing.T) {
	profile := config.Default()
	profile.Report = config.Report{Owner: "com/example/Errors", Name: "report", Descriptor: "(Ljava/lang/Throwable;)V", Static: true}

	out, _ := transform(t, routerClass(t, 52), weave.NewHooks(nil, nil, []string{"r.A"}), weave.WithProfile(profile))
	assert.Equal(t, []string{"r/A.addRoute", "com/example/Errors.report"}, calls(t, out, "initDefaultRouteMap"))
}

func TestErrors(t *testing.T) {
	t.Run("abstract marker", func(t *testing.T) {
		in, err := classfile.New(injecter, "java/lang/Object", 52)
		require.NoError(t, err)
		_, err = in.AddMethod(classfile.AccPublic|classfile.AccAbstract, "trojan", "()V", nil)
		require.NoError(t, err)

		out, _, err := weave.New(weave.NewHooks(nil, nil, nil)).Transform(in)
		require.ErrorIs(t, err, weave.ErrNoCode)
		assert.Nil(t, out)
	})

	t.Run("missing parameters", func(t *testing.T) {
		in, err := classfile.New(injecter, "java/lang/Object", 52)
		require.NoError(t, err)
		addMethod(t, in, classfile.AccPublic|classfile.AccStatic, "addFlowTask", "(Ljava/lang/Object;)V", bytecode.Op(bytecode.Return))

		for _, providers := range []map[string]string{nil, {"a/X": "1.0.0"}} {
			out, _, err := weave.New(weave.NewHooks(providers, nil, nil)).Transform(in)
			require.ErrorIs(t, err, weave.ErrArity)
			assert.Nil(t, out)
		}
	})
}
