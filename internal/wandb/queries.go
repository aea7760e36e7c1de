package wandb

const runFragment = `
fragment RunFragment on Run {
  id
  name
  displayName
  state
  config
  summaryMetrics
  tags
  createdAt
}`

const viewerQuery = `
query Viewer {
  viewer {
    id
    username
    email
    teams {
      edges {
        node {
          name
        }
      }
    }
  }
}`

const projectsQuery = `
query Projects($entity: String, $cursor: String, $perPage: Int = 50) {
  models(entityName: $entity, after: $cursor, first: $perPage) {
    edges {
      node {
        id
        name
        entityName
        createdAt
        description
      }
      cursor
    }
    pageInfo {
      endCursor
      hasNextPage
    }
  }
}`

const projectQuery = `
query Project($name: String!, $entity: String!) {
  project(name: $name, entityName: $entity) {
    id
    name
    entityName
    createdAt
    description
  }
}`

const runsQuery = `
query Runs($project: String!, $entity: String!, $cursor: String, $perPage: Int = 50, $order: String, $filters: JSONString) {
  project(name: $project, entityName: $entity) {
    runs(filters: $filters, after: $cursor, first: $perPage, order: $order) {
      edges {
        node {
          ...RunFragment
        }
        cursor
      }
      pageInfo {
        endCursor
        hasNextPage
      }
    }
  }
}` + runFragment

const runQuery = `
query Run($project: String!, $entity: String!, $name: String!) {
  project(name: $project, entityName: $entity) {
    run(name: $name) {
      ...RunFragment
    }
  }
}` + runFragment

const historyQuery = `
query RunHistory($project: String!, $entity: String!, $name: String!, $samples: Int) {
  project(name: $project, entityName: $entity) {
    run(name: $name) {
      history(samples: $samples)
    }
  }
}`
