// Copyright © 2020 Skyline Tools

package core

import (
	"context"
	"fmt"

	"github.com/blang/semver"
	"github.com/skylinetools/graft/pkg/core/status"
	"github.com/skylinetools/graft/pkg/model"
	"go.uber.org/zap"
)

// selectDynamicVersion picks the dynamic version a static reference is
// promoted to: the operator chooses, with a default derived from the static
// name, and the version is created from the old static content when it does
// not exist yet.
func (j *MergeJob) selectDynamicVersion(ctx context.Context, module string, oldStatic model.Version) (model.Version, error) {
	def := proposeDynamicVersion(oldStatic)
	chosen, err := j.interactor.PromptVersion("dynamic version for promoted reference to "+module, &def)
	if err != nil {
		return model.Version{}, err
	}
	if !chosen.IsDynamic() {
		return model.Version{}, status.ErrPromotionDeclined.WrapMessage("%s is not a dynamic version", chosen)
	}

	m, err := j.registry.Module(module)
	if err != nil {
		return model.Version{}, err
	}
	handler, err := m.SCM()
	if err != nil {
		return model.Version{}, err
	}
	exists, err := handler.VersionExists(ctx, chosen)
	if err != nil {
		return model.Version{}, err
	}
	if exists {
		return chosen, nil
	}

	create, err := j.interactor.Ask(module, keyCreatePromoted,
		"version "+chosen.String()+" does not exist on "+module+", create it from "+oldStatic.String()+"?")
	if err != nil {
		return model.Version{}, err
	}
	if !create {
		return model.Version{}, status.ErrPromotionDeclined.WrapMessage("version %s does not exist on %s", chosen, module)
	}
	if err = handler.CreateVersion(ctx, oldStatic, chosen); err != nil {
		return model.Version{}, err
	}
	j.l.Info("created dynamic version for promotion",
		zap.String("module", module), zap.Stringer("version", chosen), zap.Stringer("base", oldStatic))
	return chosen, nil
}

// proposeDynamicVersion derives a default branch name from a static name:
// semver-ish tags propose their maintenance line (v1.4.2 -> branch/v1.4),
// anything else gets a -work suffix.
func proposeDynamicVersion(static model.Version) model.Version {
	name := static.Name
	trimmed := name
	prefix := ""
	if len(trimmed) > 0 && (trimmed[0] == 'v' || trimmed[0] == 'V') {
		prefix = trimmed[:1]
		trimmed = trimmed[1:]
	}
	if sv, err := semver.ParseTolerant(trimmed); err == nil {
		return model.NewDynamic(fmt.Sprintf("%s%d.%d", prefix, sv.Major, sv.Minor))
	}
	return model.NewDynamic(name + "-work")
}
