// Package pg wires PostgreSQL through pgx/v5: a retrying pool constructor, goose
// migrations from an embedded filesystem, a readiness check and error classifiers.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, migrations.FS, ".", cfg, log); err != nil {
//	    return err
//	}
//
// Repositories depend on the DB interface rather than *pgxpool.Pool so they can be
// tested against pgxmock.
package pg
