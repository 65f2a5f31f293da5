// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package bionet is the overall repository for training recurrent,
sign-constrained signaling network models ("bionetworks") over biological
interaction graphs, implemented in the Go language (golang).

This top-level of the repository has no functional code -- everything is organized
into the following sub-packages:

* sgraph: the sparse signed interaction graph, with sign constraints per edge,
node roles and send / receive indexes.

* act, nxx1: the activation functions (Sigmoid, Michaelis-Menten-like MML, and
the noisy x/(x+1) function) with their derivatives.

* bionet: the recurrent steady-state solver x = f(W x + b + u) run for a fixed
number of iterations, its unrolled and implicit (Neumann series) gradients, the
input / projection layer model, spectral radius and activation range penalties,
and model snapshots.

* optim: Adam with explicit moment reset, and one-cycle / step learning rate schedules.

* train: the training loop context, with stats, periodic optimizer resets,
the scrambled-target control and named parameter sets.

* netio: loading of network, annotation and condition data tables.

* examples: runnable programs: ligandscreen (leave-out cross validation),
gradcheck (gradient strategy comparison) and synthnet (random multi-ligand
simulations).
*/
package bionet
