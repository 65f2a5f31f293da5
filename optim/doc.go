// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package optim provides the Adam optimizer with an explicit, idempotent
Reset of its moment estimates, and learning rate schedules including the
one-cycle cosine ramp used to train bionetworks.
*/
package optim
